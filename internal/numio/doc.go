// Package numio decodes the primitive wire types of the cache format:
// LEB128 unsigned varints, length-prefixed strings, and fixed-width bit
// planes.
//
// The Reader tracks how many bytes it has consumed so callers can report
// precise offsets for malformed input. Encoding counterparts exist only to
// build test fixtures; the public API of this module has no write path.
package numio
