package dle

import "bytes"

var (
	startMarker = []byte{DLE, STX}
	endMarker   = []byte{DLE, ETX}
)

func nonEscapedLen(src []byte) int {
	return len(startMarker) + len(src) + bytes.Count(src, []byte{DLE}) + len(endMarker)
}

// EncodeNonEscaped writes src as a non-escaped-mode frame into dst and
// returns the number of bytes written. Only DLE bytes are stuffed; STX and
// ETX pass through because the receiver only treats them as markers after a
// DLE.
//
// If the frame does not fit in dst, EncodeNonEscaped returns
// ErrBufferTooSmall and leaves dst untouched.
func EncodeNonEscaped(dst, src []byte) (int, error) {
	if nonEscapedLen(src) > len(dst) {
		return 0, ErrBufferTooSmall
	}

	n := copy(dst, startMarker)
	n += stuffNonEscaped(dst[n:], src)
	n += copy(dst[n:], endMarker)
	return n, nil
}

// stuffNonEscaped writes src with every DLE doubled into dst. dst must be
// large enough.
func stuffNonEscaped(dst, src []byte) int {
	n := 0
	for _, b := range src {
		if b == DLE {
			dst[n], dst[n+1] = DLE, DLE
			n += 2
			continue
		}
		dst[n] = b
		n++
	}
	return n
}

// DecodeNonEscaped decodes the non-escaped-mode frame at the start of src into
// dst. It returns the payload length and the number of input bytes that made
// up the frame, including the closing DLE-ETX.
//
// A DLE-STX inside the frame fails with ErrUnexpectedStartMarker; the error
// offset points at its DLE, where the next frame may begin.
func DecodeNonEscaped(dst, src []byte) (n, consumed int, err error) {
	if len(src) < len(startMarker) {
		if len(src) == 0 || src[0] == DLE {
			return 0, 0, errAt(len(src), ErrTruncatedFrame)
		}
		return 0, 0, errAt(0, ErrMissingStartMarker)
	}
	if !bytes.HasPrefix(src, startMarker) {
		return 0, 0, errAt(0, ErrMissingStartMarker)
	}

	for i := len(startMarker); i < len(src); i++ {
		b := src[i]
		if b == DLE {
			if i+1 >= len(src) {
				return 0, 0, errAt(i, ErrTruncatedFrame)
			}
			switch src[i+1] {
			case ETX:
				return n, i + 2, nil
			case STX:
				return 0, 0, errAt(i, ErrUnexpectedStartMarker)
			case DLE:
				i++
			default:
				return 0, 0, errAt(i, ErrInvalidEscapeSequence)
			}
		}
		if n >= len(dst) {
			return 0, 0, ErrBufferTooSmall
		}
		dst[n] = b
		n++
	}

	return 0, 0, errAt(len(src), ErrMissingEndMarker)
}
