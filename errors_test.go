package eixgo

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/eixgo/internal/numio"
)

func TestFormatError(t *testing.T) {
	err := formatErr(2, 40, ErrBadMagic, "got %q", "XXXX")

	assert.ErrorIs(t, err, ErrBadMagic)
	assert.NotErrorIs(t, err, ErrUnsupportedVersion)

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Segment)
	assert.Equal(t, int64(40), fe.Offset)

	assert.Contains(t, err.Error(), "segment 2")
	assert.Contains(t, err.Error(), "offset 40")
	assert.Contains(t, err.Error(), `"XXXX"`)
}

func TestTranslateError(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil, 0, 0, "x"))
	})

	t.Run("InvalidVarint", func(t *testing.T) {
		in := fmt.Errorf("%w: input ends after 3 continuation bytes", numio.ErrInvalidVarint)
		err := translateError(in, 1, 17, "category count")

		assert.ErrorIs(t, err, ErrInvalidVarint)

		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 1, fe.Segment)
		assert.Equal(t, int64(17), fe.Offset)
	})

	t.Run("Truncated", func(t *testing.T) {
		for _, in := range []error{
			numio.ErrTruncated,
			numio.ErrStringTooLong,
			io.ErrUnexpectedEOF,
			io.EOF,
		} {
			err := translateError(in, 0, 3, "package name")
			assert.ErrorIs(t, err, ErrTruncatedRecord, "input %v", in)
		}
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		in := fmt.Errorf("%w: index 9, pool size 2", ErrIndexOutOfRange)
		err := translateError(in, 0, 99, "slot reference")

		assert.ErrorIs(t, err, ErrIndexOutOfRange)

		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, int64(99), fe.Offset)
	})

	t.Run("FormatErrorPassthrough", func(t *testing.T) {
		in := formatErr(3, 12, ErrTruncatedRecord, "version count")
		out := translateError(in, 7, 700, "outer")

		// Position information from the failure site is never overwritten.
		assert.Same(t, in.(*FormatError), out.(*FormatError))
	})

	t.Run("IOPassthrough", func(t *testing.T) {
		in := errors.New("read /dev/sda: input/output error")
		err := translateError(in, 0, 0, "package name")

		assert.ErrorIs(t, err, in)

		var fe *FormatError
		assert.False(t, errors.As(err, &fe))
	})
}
