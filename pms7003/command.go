package pms7003

import (
	"fmt"
	"time"
)

// Command opcodes from the product data manual.
const (
	cmdSetMode     = 0xE1
	cmdPassiveRead = 0xE2
	cmdSleepWake   = 0xE4
)

// Longest documented interval between a command and the sensor's reply.
const defaultResponseDelay = 2300 * time.Millisecond

// encodeCommand builds a command request frame: marker, opcode, 16-bit
// data value, then the additive checksum over the preceding five bytes
// split into high and low.
func encodeCommand(opcode byte, data uint16) []byte {
	frame := []byte{startMarker[0], startMarker[1], opcode, byte(data >> 8), byte(data)}

	var sum uint16
	for _, b := range frame {
		sum += uint16(b)
	}
	return append(frame, byte(sum>>8), byte(sum))
}

// send writes a command frame without expecting any reply.
func (s *Sensor) send(opcode byte, data uint16) error {
	if _, err := s.conn.Write(encodeCommand(opcode, data)); err != nil {
		return fmt.Errorf("%w: write command 0x%02X: %v", ErrSensorComm, opcode, err)
	}
	return nil
}

// request writes a command frame, waits out the sensor's response
// latency, then synchronizes on the reply and returns its raw payload.
// The caller validates the checksum.
func (s *Sensor) request(opcode byte, data uint16, respLen int) ([]byte, error) {
	if err := s.send(opcode, data); err != nil {
		return nil, err
	}

	time.Sleep(s.responseDelay)

	return syncFrame(s.conn, respLen)
}

// requestAck issues a command that answers with a 6-byte
// acknowledgement and validates it.
func (s *Sensor) requestAck(opcode byte, data uint16) error {
	payload, err := s.request(opcode, data, ackFrameLen)
	if err != nil {
		return err
	}
	return verifyChecksum(payload, decodeWords(payload))
}
