package dle

// escapedLen returns the size of the escaped-mode frame for src.
func escapedLen(src []byte, escapeCR bool) int {
	n := 2
	for _, b := range src {
		if b == DLE || b == STX || b == ETX || (escapeCR && b == CR) {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// EncodeEscaped writes src as an escaped-mode frame into dst and returns the
// number of bytes written. When escapeCR is set, CR is escaped like STX and
// ETX.
//
// If the frame does not fit in dst, EncodeEscaped returns ErrBufferTooSmall
// and leaves dst untouched.
func EncodeEscaped(dst, src []byte, escapeCR bool) (int, error) {
	if escapedLen(src, escapeCR) > len(dst) {
		return 0, ErrBufferTooSmall
	}

	dst[0] = STX
	n := 1 + stuffEscaped(dst[1:], src, escapeCR)
	dst[n] = ETX
	n++
	return n, nil
}

// stuffEscaped writes the escaped payload bytes of src, without markers, into
// dst. dst must be large enough.
func stuffEscaped(dst, src []byte, escapeCR bool) int {
	n := 0
	for _, b := range src {
		switch {
		case b == DLE:
			dst[n], dst[n+1] = DLE, DLE
			n += 2
		case b == STX, b == ETX, escapeCR && b == CR:
			dst[n], dst[n+1] = DLE, b+EscapeOffset
			n += 2
		default:
			dst[n] = b
			n++
		}
	}
	return n
}

// DecodeEscaped decodes the escaped-mode frame at the start of src into dst.
// It returns the payload length and the number of input bytes that made up
// the frame. Bytes after the closing ETX are not examined.
//
// On failure n and consumed are 0. Structural errors are *DecodeError values
// wrapping one of the package sentinels.
func DecodeEscaped(dst, src []byte, escapeCR bool) (n, consumed int, err error) {
	if len(src) == 0 {
		return 0, 0, errAt(0, ErrTruncatedFrame)
	}
	if src[0] != STX {
		return 0, 0, errAt(0, ErrMissingStartMarker)
	}

	for i := 1; i < len(src); i++ {
		b := src[i]
		switch b {
		case ETX:
			return n, i + 1, nil
		case DLE:
			if i+1 >= len(src) {
				return 0, 0, errAt(i, ErrTruncatedFrame)
			}
			var ok bool
			if b, ok = unescape(src[i+1], escapeCR); !ok {
				return 0, 0, errAt(i, ErrInvalidEscapeSequence)
			}
			i++
		}
		if n >= len(dst) {
			return 0, 0, ErrBufferTooSmall
		}
		dst[n] = b
		n++
	}

	return 0, 0, errAt(len(src), ErrMissingEndMarker)
}

// unescape maps the byte following a DLE back to its payload value.
func unescape(e byte, escapeCR bool) (byte, bool) {
	switch {
	case e == DLE:
		return DLE, true
	case e == STX+EscapeOffset, e == ETX+EscapeOffset, escapeCR && e == CR+EscapeOffset:
		return e - EscapeOffset, true
	}
	return 0, false
}
