package dle

import "slices"

// Codec bundles a Mode with its options. The zero value is an escaped-mode
// codec without CR escaping that accepts trailing data. A Codec has no mutable
// state and may be shared between goroutines.
type Codec struct {
	Mode Mode

	// EscapeCR also escapes CR (0x0D) in escaped mode. Both ends of a link
	// must agree on it. It has no effect in non-escaped mode.
	EscapeCR bool

	// RejectTrailing makes Decode fail with ErrTrailingData when bytes follow
	// the end marker. Otherwise they are left for the caller and reported
	// through the consumed count.
	RejectTrailing bool

	// OmitMarkers makes Encode, EncodedLen and AppendEncode produce only the
	// stuffed payload, without start and end markers, for callers that add
	// their own delimiters. Decode ignores it.
	OmitMarkers bool
}

// DefaultCodec returns an escaped-mode codec.
func DefaultCodec() Codec {
	return Codec{Mode: Escaped}
}

// EncodedLen returns the exact size of the frame Encode produces for src, or
// 0 if the mode is invalid.
func (c Codec) EncodedLen(src []byte) int {
	var n int
	switch c.Mode {
	case Escaped:
		n = escapedLen(src, c.EscapeCR)
	case NonEscaped:
		n = nonEscapedLen(src)
	default:
		return 0
	}
	if c.OmitMarkers {
		n -= 2 * c.Mode.markerLen()
	}
	return n
}

// Encode writes the frame for src into dst and returns its length.
func (c Codec) Encode(dst, src []byte) (int, error) {
	if c.OmitMarkers {
		return c.encodeBody(dst, src)
	}
	switch c.Mode {
	case Escaped:
		return EncodeEscaped(dst, src, c.EscapeCR)
	case NonEscaped:
		return EncodeNonEscaped(dst, src)
	default:
		return 0, ErrInvalidMode
	}
}

func (c Codec) encodeBody(dst, src []byte) (int, error) {
	if !c.Mode.valid() {
		return 0, ErrInvalidMode
	}
	if c.EncodedLen(src) > len(dst) {
		return 0, ErrBufferTooSmall
	}
	if c.Mode == NonEscaped {
		return stuffNonEscaped(dst, src), nil
	}
	return stuffEscaped(dst, src, c.EscapeCR), nil
}

// AppendEncode appends the frame for src to dst, growing it as needed.
func (c Codec) AppendEncode(dst, src []byte) ([]byte, error) {
	if !c.Mode.valid() {
		return dst, ErrInvalidMode
	}
	size := c.EncodedLen(src)
	dst = slices.Grow(dst, size)
	if _, err := c.Encode(dst[len(dst):len(dst)+size], src); err != nil {
		return dst, err
	}
	return dst[:len(dst)+size], nil
}

// Decode decodes the frame at the start of src into dst. It returns the
// payload length and the number of input bytes the frame occupied.
func (c Codec) Decode(dst, src []byte) (n, consumed int, err error) {
	switch c.Mode {
	case Escaped:
		n, consumed, err = DecodeEscaped(dst, src, c.EscapeCR)
	case NonEscaped:
		n, consumed, err = DecodeNonEscaped(dst, src)
	default:
		return 0, 0, ErrInvalidMode
	}
	if err != nil {
		return 0, 0, err
	}
	if c.RejectTrailing && consumed < len(src) {
		return 0, 0, errAt(consumed, ErrTrailingData)
	}
	return n, consumed, nil
}

// DecodeToBytes decodes the frame at the start of src into a new slice. A
// payload is never longer than its frame, so len(src) bytes always suffice.
func (c Codec) DecodeToBytes(src []byte) (payload []byte, consumed int, err error) {
	buf := make([]byte, len(src))
	n, consumed, err := c.Decode(buf, src)
	if err != nil {
		return nil, 0, err
	}
	return buf[:n], consumed, nil
}
