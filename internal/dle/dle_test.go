package dle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vector struct {
	name       string
	payload    []byte
	escaped    []byte
	nonEscaped []byte
}

var vectors = []vector{
	{
		name:       "empty",
		payload:    []byte{},
		escaped:    []byte{STX, ETX},
		nonEscaped: []byte{DLE, STX, DLE, ETX},
	},
	{
		name:       "zeros",
		payload:    []byte{0, 0, 0, 0, 0},
		escaped:    []byte{STX, 0, 0, 0, 0, 0, ETX},
		nonEscaped: []byte{DLE, STX, 0, 0, 0, 0, 0, DLE, ETX},
	},
	{
		name:       "dle",
		payload:    []byte{0, DLE, 5},
		escaped:    []byte{STX, 0, DLE, DLE, 5, ETX},
		nonEscaped: []byte{DLE, STX, 0, DLE, DLE, 5, DLE, ETX},
	},
	{
		name:       "stx",
		payload:    []byte{0, STX, 5},
		escaped:    []byte{STX, 0, DLE, STX + EscapeOffset, 5, ETX},
		nonEscaped: []byte{DLE, STX, 0, STX, 5, DLE, ETX},
	},
	{
		name:       "cr and etx",
		payload:    []byte{0, CR, ETX},
		escaped:    []byte{STX, 0, CR, DLE, ETX + EscapeOffset, ETX},
		nonEscaped: []byte{DLE, STX, 0, CR, ETX, DLE, ETX},
	},
	{
		name:       "all markers",
		payload:    []byte{DLE, ETX, STX},
		escaped:    []byte{STX, DLE, DLE, DLE, ETX + EscapeOffset, DLE, STX + EscapeOffset, ETX},
		nonEscaped: []byte{DLE, STX, DLE, DLE, ETX, STX, DLE, ETX},
	},
}

func TestEncodeEscaped_Vectors(t *testing.T) {
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			buf := make([]byte, 32)
			n, err := EncodeEscaped(buf, v.payload, false)
			require.NoError(t, err)
			assert.Equal(t, v.escaped, buf[:n])
		})
	}
}

func TestEncodeNonEscaped_Vectors(t *testing.T) {
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			buf := make([]byte, 32)
			n, err := EncodeNonEscaped(buf, v.payload)
			require.NoError(t, err)
			assert.Equal(t, v.nonEscaped, buf[:n])
		})
	}
}

func TestDecodeEscaped_Vectors(t *testing.T) {
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			buf := make([]byte, 32)
			n, consumed, err := DecodeEscaped(buf, v.escaped, false)
			require.NoError(t, err)
			assert.Equal(t, v.payload, buf[:n])
			assert.Equal(t, len(v.escaped), consumed)
		})
	}
}

func TestDecodeNonEscaped_Vectors(t *testing.T) {
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			buf := make([]byte, 32)
			n, consumed, err := DecodeNonEscaped(buf, v.nonEscaped)
			require.NoError(t, err)
			assert.Equal(t, v.payload, buf[:n])
			assert.Equal(t, len(v.nonEscaped), consumed)
		})
	}
}

func TestEncodeEscaped_Scenarios(t *testing.T) {
	buf := make([]byte, 8)

	n, err := EncodeEscaped(buf, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{STX, ETX}, buf[:n])

	n, err = EncodeEscaped(buf, []byte{0x41}, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{STX, 0x41, ETX}, buf[:n])

	n, err = EncodeEscaped(buf, []byte{STX}, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{STX, DLE, STX + 0x40, ETX}, buf[:n])

	n, err = EncodeEscaped(buf, []byte{DLE}, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{STX, DLE, DLE, ETX}, buf[:n])
}

func TestEncodeEscaped_CR(t *testing.T) {
	buf := make([]byte, 8)

	n, err := EncodeEscaped(buf, []byte{CR}, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{STX, DLE, CR + EscapeOffset, ETX}, buf[:n])

	n, err = EncodeEscaped(buf, []byte{CR}, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{STX, CR, ETX}, buf[:n])
}

func TestDecodeEscaped_CR(t *testing.T) {
	buf := make([]byte, 8)
	frame := []byte{STX, DLE, CR + EscapeOffset, ETX}

	n, _, err := DecodeEscaped(buf, frame, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{CR}, buf[:n])

	_, _, err = DecodeEscaped(buf, frame, false)
	assert.ErrorIs(t, err, ErrInvalidEscapeSequence)
}

func TestEncodeNonEscaped_MarkersPassThrough(t *testing.T) {
	buf := make([]byte, 8)
	n, err := EncodeNonEscaped(buf, []byte{STX, ETX})
	require.NoError(t, err)
	assert.Equal(t, []byte{DLE, STX, STX, ETX, DLE, ETX}, buf[:n])

	out := make([]byte, 8)
	m, consumed, err := DecodeNonEscaped(out, buf[:n])
	require.NoError(t, err)
	assert.Equal(t, []byte{STX, ETX}, out[:m])
	assert.Equal(t, n, consumed)
}

func TestDecodeEscaped_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		frame  []byte
		want   error
		offset int
	}{
		{"empty", nil, ErrTruncatedFrame, 0},
		{"dle without classifier", []byte{STX, DLE}, ErrTruncatedFrame, 1},
		{"no start", []byte{0, 0, DLE, DLE, 5, ETX}, ErrMissingStartMarker, 0},
		{"no end", []byte{STX, 0, DLE, DLE, 5, 0}, ErrMissingEndMarker, 6},
		{"start only", []byte{STX}, ErrMissingEndMarker, 1},
		{"bad escape", []byte{STX, 0, DLE, 0, 5, ETX}, ErrInvalidEscapeSequence, 2},
		{"unshifted escape", []byte{STX, DLE, STX, ETX}, ErrInvalidEscapeSequence, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, 32)
			n, consumed, err := DecodeEscaped(buf, tc.frame, false)
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, n)
			assert.Zero(t, consumed)

			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Equal(t, tc.offset, decErr.Offset)
		})
	}
}

func TestDecodeNonEscaped_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		frame  []byte
		want   error
		offset int
	}{
		{"empty", nil, ErrTruncatedFrame, 0},
		{"lone dle", []byte{DLE}, ErrTruncatedFrame, 1},
		{"lone byte", []byte{STX}, ErrMissingStartMarker, 0},
		{"first byte wrong", []byte{0, STX, 0, DLE, DLE, 5, DLE, ETX}, ErrMissingStartMarker, 0},
		{"second byte wrong", []byte{DLE, 0, 0, DLE, DLE, 5, DLE, ETX}, ErrMissingStartMarker, 0},
		{"end dle missing", []byte{DLE, STX, 0, DLE, DLE, 5, 0, ETX}, ErrMissingEndMarker, 8},
		{"end classifier wrong", []byte{DLE, STX, 0, DLE, DLE, 5, DLE, 0}, ErrInvalidEscapeSequence, 6},
		{"stuffed dle broken", []byte{DLE, STX, DLE, 0, ETX, STX, DLE, ETX}, ErrInvalidEscapeSequence, 2},
		{"trailing dle", []byte{DLE, STX, 7, DLE}, ErrTruncatedFrame, 3},
		{"second start", []byte{DLE, STX, 7, DLE, STX, 8, DLE, ETX}, ErrUnexpectedStartMarker, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, 32)
			n, consumed, err := DecodeNonEscaped(buf, tc.frame)
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, n)
			assert.Zero(t, consumed)

			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Equal(t, tc.offset, decErr.Offset)
		})
	}
}

func TestDecodeEscaped_TrailingBytesLeftAlone(t *testing.T) {
	buf := make([]byte, 8)
	n, consumed, err := DecodeEscaped(buf, []byte{STX, 0x41, ETX, STX, 0x42, ETX}, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41}, buf[:n])
	assert.Equal(t, 3, consumed)
}

func TestDecodeNonEscaped_TrailingBytesLeftAlone(t *testing.T) {
	buf := make([]byte, 8)
	n, consumed, err := DecodeNonEscaped(buf, []byte{DLE, STX, 0x41, DLE, ETX, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41}, buf[:n])
	assert.Equal(t, 5, consumed)
}

func TestEncode_BufferTooSmall(t *testing.T) {
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			for size := 0; size < len(v.escaped); size++ {
				backing := filled(32, 0xAA)
				n, err := EncodeEscaped(backing[:size], v.payload, false)
				assert.ErrorIs(t, err, ErrBufferTooSmall)
				assert.Zero(t, n)
				assert.Equal(t, filled(32, 0xAA), backing, "size %d", size)
			}
			for size := 0; size < len(v.nonEscaped); size++ {
				backing := filled(32, 0xAA)
				n, err := EncodeNonEscaped(backing[:size], v.payload)
				assert.ErrorIs(t, err, ErrBufferTooSmall)
				assert.Zero(t, n)
				assert.Equal(t, filled(32, 0xAA), backing, "size %d", size)
			}
		})
	}
}

func TestDecode_BufferTooSmall(t *testing.T) {
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			for size := 0; size < len(v.payload); size++ {
				backing := filled(32, 0xAA)
				n, consumed, err := DecodeEscaped(backing[:size], v.escaped, false)
				assert.ErrorIs(t, err, ErrBufferTooSmall)
				assert.Zero(t, n)
				assert.Zero(t, consumed)
				assert.Equal(t, filled(32-size, 0xAA), backing[size:])

				backing = filled(32, 0xAA)
				n, consumed, err = DecodeNonEscaped(backing[:size], v.nonEscaped)
				assert.ErrorIs(t, err, ErrBufferTooSmall)
				assert.Zero(t, n)
				assert.Zero(t, consumed)
				assert.Equal(t, filled(32-size, 0xAA), backing[size:])
			}
		})
	}
}

func TestDecode_TruncatedPrefixes(t *testing.T) {
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			buf := make([]byte, 32)
			for k := 0; k < len(v.escaped); k++ {
				_, _, err := DecodeEscaped(buf, v.escaped[:k], false)
				assert.True(t, errors.Is(err, ErrTruncatedFrame) || errors.Is(err, ErrMissingEndMarker),
					"escaped prefix %d: %v", k, err)
			}
			for k := 0; k < len(v.nonEscaped); k++ {
				_, _, err := DecodeNonEscaped(buf, v.nonEscaped[:k])
				assert.True(t, errors.Is(err, ErrTruncatedFrame) || errors.Is(err, ErrMissingEndMarker),
					"non-escaped prefix %d: %v", k, err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("escaped")
	require.NoError(t, err)
	assert.Equal(t, Escaped, m)

	m, err = ParseMode(" Non-Escaped ")
	require.NoError(t, err)
	assert.Equal(t, NonEscaped, m)

	m, err = ParseMode("nonescaped")
	require.NoError(t, err)
	assert.Equal(t, NonEscaped, m)

	_, err = ParseMode("cobs")
	assert.Error(t, err)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "escaped", Escaped.String())
	assert.Equal(t, "non-escaped", NonEscaped.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestDecodeError_Message(t *testing.T) {
	err := errAt(4, ErrInvalidEscapeSequence)
	assert.Equal(t, "dle: invalid escape sequence at offset 4", err.Error())
	assert.ErrorIs(t, err, ErrInvalidEscapeSequence)
}

func filled(n int, b byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}
