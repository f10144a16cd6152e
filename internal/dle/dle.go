// Package dle implements ASCII DLE framing for character-oriented serial
// links. A payload is wrapped between STX and ETX markers, and DLE escape
// sequences keep marker bytes inside the payload from being mistaken for
// frame boundaries.
//
// Two wire formats are supported:
//
//	Mode        Start     End       STX/ETX in payload   DLE in payload
//	Escaped     STX       ETX       DLE, byte+0x40       DLE, DLE
//	NonEscaped  DLE, STX  DLE, ETX  unchanged            DLE, DLE
//
// All functions write into caller-supplied buffers and never write at or past
// len(dst). None of them keep state between calls.
package dle

import (
	"fmt"
	"strings"
)

// Control characters used by the framing.
const (
	STX = 0x02
	ETX = 0x03
	DLE = 0x10
	CR  = 0x0D

	// EscapeOffset is added to an escaped STX, ETX or CR in escaped mode so
	// the byte after DLE is never itself a marker.
	EscapeOffset = 0x40
)

// Mode selects the wire format.
type Mode int

const (
	// Escaped frames are delimited by bare STX/ETX.
	Escaped Mode = iota
	// NonEscaped frames are delimited by DLE-STX and DLE-ETX.
	NonEscaped
)

func (m Mode) String() string {
	switch m {
	case Escaped:
		return "escaped"
	case NonEscaped:
		return "non-escaped"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m == Escaped || m == NonEscaped
}

// markerLen is the size of one start or end marker.
func (m Mode) markerLen() int {
	if m == NonEscaped {
		return len(startMarker)
	}
	return 1
}

// ParseMode parses a mode name as printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "escaped":
		return Escaped, nil
	case "non-escaped", "nonescaped":
		return NonEscaped, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want escaped or non-escaped)", s)
	}
}
