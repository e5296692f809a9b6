package pms7003

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sealPayload writes the checksum the sensor would transmit into the
// final word of payload and returns it.
func sealPayload(payload []byte) []byte {
	sum := uint16(startMarker[0]) + uint16(startMarker[1])
	for _, b := range payload[:len(payload)-2] {
		sum += uint16(b)
	}
	payload[len(payload)-2] = byte(sum >> 8)
	payload[len(payload)-1] = byte(sum)
	return payload
}

// readingPayload builds a valid 30-byte measurement payload from the 12
// measurement values.
func readingPayload(fields [12]uint16) []byte {
	payload := make([]byte, readingFrameLen)
	payload[0] = 0x00
	payload[1] = 28 // frame length field: 13 data words + checksum
	for i, v := range fields {
		payload[2+2*i] = byte(v >> 8)
		payload[3+2*i] = byte(v)
	}
	return sealPayload(payload)
}

// ackPayload builds a valid 6-byte acknowledgement for an opcode.
func ackPayload(opcode byte, data byte) []byte {
	return sealPayload([]byte{0x00, 0x04, opcode, data, 0x00, 0x00})
}

func TestDecodeWords(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    []uint16
	}{
		{
			name:    "empty",
			payload: []byte{},
			want:    []uint16{},
		},
		{
			name:    "single pair",
			payload: []byte{0x12, 0x34},
			want:    []uint16{0x1234},
		},
		{
			name:    "order preserved",
			payload: []byte{0x00, 0x1C, 0xFF, 0x00, 0x00, 0xFF},
			want:    []uint16{0x001C, 0xFF00, 0x00FF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeWords(tt.payload)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.payload)/2)
		})
	}
}

func TestSyncFrame(t *testing.T) {
	payload := readingPayload([12]uint16{})

	tests := []struct {
		name   string
		stream []byte
	}{
		{
			name:   "marker first",
			stream: append([]byte{0x42, 0x4D}, payload...),
		},
		{
			name:   "junk before marker",
			stream: append([]byte{0x00, 0xFF, 0x11, 0x42, 0x4D}, payload...),
		},
		{
			name:   "false start then real marker",
			stream: append([]byte{0x42, 0x00, 0x42, 0x4D}, payload...),
		},
		{
			name:   "repeated first marker byte",
			stream: append([]byte{0x42, 0x42, 0x4D}, payload...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := syncFrame(bytes.NewReader(tt.stream), readingFrameLen)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestSyncFrameShortRead(t *testing.T) {
	payload := readingPayload([12]uint16{})

	// Stream ends one byte before the payload completes.
	stream := append([]byte{0x42, 0x4D}, payload[:len(payload)-1]...)

	_, err := syncFrame(bytes.NewReader(stream), readingFrameLen)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSensorComm)
}

func TestSyncFrameNoMarker(t *testing.T) {
	_, err := syncFrame(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}), readingFrameLen)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSensorComm)
}

func TestVerifyChecksum(t *testing.T) {
	valid := readingPayload([12]uint16{10, 20, 30, 9, 18, 27, 300, 200, 100, 50, 10, 5})

	t.Run("accepts valid frame", func(t *testing.T) {
		assert.NoError(t, verifyChecksum(valid, decodeWords(valid)))
	})

	t.Run("rejects flipped checksum low byte", func(t *testing.T) {
		corrupt := append([]byte(nil), valid...)
		corrupt[len(corrupt)-1] ^= 0x01

		err := verifyChecksum(corrupt, decodeWords(corrupt))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("rejects corrupted data byte", func(t *testing.T) {
		corrupt := append([]byte(nil), valid...)
		corrupt[4] ^= 0x80

		err := verifyChecksum(corrupt, decodeWords(corrupt))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("accepts valid acknowledgement", func(t *testing.T) {
		ack := ackPayload(cmdSetMode, 0x00)
		assert.NoError(t, verifyChecksum(ack, decodeWords(ack)))
	})
}
