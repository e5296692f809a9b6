package pms7003

import (
	"fmt"
	"io"
)

// Every frame the sensor emits or accepts begins with these two bytes.
var startMarker = [2]byte{0x42, 0x4D}

const (
	// readingFrameLen is the payload length following the marker for a
	// measurement frame: 15 big-endian words (frame length, 12
	// measurements, reserved, checksum).
	readingFrameLen = 30

	// ackFrameLen is the payload length following the marker for a
	// command acknowledgement.
	ackFrameLen = 6
)

// syncFrame consumes stream bytes until the start marker has been seen
// (the marker itself is consumed), then reads exactly payloadLen further
// bytes. A short read before the payload completes surfaces as
// ErrSensorComm; the transport's read timeout bounds the scan.
func syncFrame(r io.Reader, payloadLen int) ([]byte, error) {
	var b [1]byte
	matched := 0
	for matched < len(startMarker) {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("%w: seeking frame start: %v", ErrSensorComm, err)
		}
		switch {
		case b[0] == startMarker[matched]:
			matched++
		case b[0] == startMarker[0]:
			matched = 1
		default:
			matched = 0
		}
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: short frame: %v", ErrSensorComm, err)
	}
	return payload, nil
}

// decodeWords reassembles big-endian 16-bit words from consecutive byte
// pairs, preserving order. The payload length is always even: frame
// lengths are fixed by the protocol.
func decodeWords(payload []byte) []uint16 {
	words := make([]uint16, len(payload)/2)
	for i := range words {
		words[i] = uint16(payload[2*i])<<8 | uint16(payload[2*i+1])
	}
	return words
}

// verifyChecksum checks a frame's final word against the additive sum of
// every payload byte except the checksum's own two, plus the two marker
// bytes. The sensor sums raw bytes, not reassembled words.
func verifyChecksum(payload []byte, words []uint16) error {
	got := words[len(words)-1]

	want := uint16(startMarker[0]) + uint16(startMarker[1])
	for _, b := range payload[:len(payload)-2] {
		want += uint16(b)
	}

	if got != want {
		return fmt.Errorf("%w: got 0x%04X, want 0x%04X", ErrChecksumMismatch, got, want)
	}
	return nil
}
