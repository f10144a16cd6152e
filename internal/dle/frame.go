package dle

import "bytes"

// ReadFrame locates the first complete frame in data. It returns the frame,
// markers included, and the bytes that follow it. Bytes before the start
// marker are skipped. If no complete frame is present, ReadFrame returns nil
// and data unchanged.
//
// When a new start marker shows up before the current frame has ended, the
// partial frame is dropped and the search restarts at the new marker.
func ReadFrame(mode Mode, data []byte) (frame []byte, remaining []byte) {
	switch mode {
	case Escaped:
		return readEscapedFrame(data)
	case NonEscaped:
		return readNonEscapedFrame(data)
	default:
		return nil, data
	}
}

func readEscapedFrame(data []byte) ([]byte, []byte) {
	start := bytes.IndexByte(data, STX)
	if start == -1 {
		return nil, data
	}

	// Escaped frames never contain a bare ETX, so the first one closes the
	// frame.
	end := bytes.IndexByte(data[start+1:], ETX)
	if end == -1 {
		return nil, data
	}
	end += start + 1

	if restart := bytes.LastIndexByte(data[start+1:end], STX); restart != -1 {
		start += restart + 1
	}
	return data[start : end+1], data[end+1:]
}

func readNonEscapedFrame(data []byte) ([]byte, []byte) {
	start := bytes.Index(data, startMarker)
	if start == -1 {
		return nil, data
	}

	i := start + len(startMarker)
	for i < len(data) {
		if data[i] != DLE {
			i++
			continue
		}
		if i+1 >= len(data) {
			break
		}
		switch data[i+1] {
		case ETX:
			return data[start : i+2], data[i+2:]
		case STX:
			start = i
		}
		i += 2
	}

	// Frame not complete yet
	return nil, data
}

// Scanner walks the frames of a single in-memory buffer. It does not carry
// partial frames from one buffer to the next; Rest returns the unscanned
// tail so the caller can decide what to do with it.
//
// A Scanner is not safe for concurrent use.
type Scanner struct {
	codec  Codec
	buf    []byte
	pos    int
	frame  []byte
	offset int
}

// NewScanner returns a Scanner over buf that splits and decodes frames
// with c.
func NewScanner(c Codec, buf []byte) *Scanner {
	s := &Scanner{codec: c}
	s.Reset(buf)
	return s
}

// Reset starts scanning buf from the beginning.
func (s *Scanner) Reset(buf []byte) {
	s.buf = buf
	s.pos = 0
	s.frame = nil
	s.offset = 0
}

// Next advances to the next complete frame. It returns false when no
// complete frame remains.
func (s *Scanner) Next() bool {
	frame, rest := ReadFrame(s.codec.Mode, s.buf[s.pos:])
	if frame == nil {
		s.frame = nil
		return false
	}
	s.frame = frame
	s.offset = len(s.buf) - len(rest) - len(frame)
	s.pos = len(s.buf) - len(rest)
	return true
}

// Frame returns the encoded bytes of the current frame. The slice aliases
// the scanned buffer.
func (s *Scanner) Frame() []byte {
	return s.frame
}

// Offset returns the index of the current frame in the scanned buffer.
func (s *Scanner) Offset() int {
	return s.offset
}

// Pos returns how many bytes of the buffer have been consumed so far.
func (s *Scanner) Pos() int {
	return s.pos
}

// Rest returns the bytes after the last frame returned by Next.
func (s *Scanner) Rest() []byte {
	return s.buf[s.pos:]
}

// Decode decodes the current frame into dst.
func (s *Scanner) Decode(dst []byte) (int, error) {
	if s.frame == nil {
		return 0, errAt(s.pos, ErrMissingStartMarker)
	}
	n, _, err := s.codec.Decode(dst, s.frame)
	return n, err
}
