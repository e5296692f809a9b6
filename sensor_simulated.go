//go:build simulated

package main

import (
	"bytes"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/dustwatch/pms-controller/pms7003"
)

// openSensor wires the session to an in-memory sensor behaving like
// the real hardware: active pushes, passive reads, sleep/wake and mode
// acknowledgements, checksummed frames throughout.
func openSensor(cfg *SerialSettings) (*pms7003.Sensor, error) {
	return pms7003.New(newSimulatedSensor(), pms7003.WithResponseDelay(10*time.Millisecond)), nil
}

type simulatedSensor struct {
	mu      sync.Mutex
	pending bytes.Buffer
	passive bool
	asleep  bool
	closed  bool
	rng     *rand.Rand
}

func newSimulatedSensor() *simulatedSensor {
	return &simulatedSensor{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *simulatedSensor) Read(p []byte) (int, error) {
	// Pace roughly like the hardware's ~1Hz push rate.
	time.Sleep(100 * time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}

	if s.pending.Len() == 0 {
		if s.passive || s.asleep {
			// Nothing to say; the driver sees this as a read timeout.
			return 0, io.EOF
		}
		s.pending.Write(s.readingFrame())
	}

	return s.pending.Read(p)
}

func (s *simulatedSensor) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}

	// Command frames are marker, opcode, data hi/lo, checksum hi/lo.
	if len(p) != 7 || p[0] != 0x42 || p[1] != 0x4D {
		return len(p), nil
	}
	opcode, data := p[2], p[4]

	switch opcode {
	case 0xE1: // set mode
		s.passive = data == 0
		s.pending.Write(ackFrame(opcode, data))
	case 0xE4: // sleep/wake
		if data == 0 {
			s.asleep = true
			s.pending.Write(ackFrame(opcode, data))
		} else {
			// Wake sends no acknowledgement.
			s.asleep = false
		}
	case 0xE2: // passive read
		if !s.asleep {
			s.pending.Write(s.readingFrame())
		}
	}

	return len(p), nil
}

func (s *simulatedSensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// readingFrame synthesizes a plausible measurement frame with a valid
// checksum.
func (s *simulatedSensor) readingFrame() []byte {
	pm25 := uint16(5 + s.rng.Intn(30))
	pm10 := pm25 / 2
	pm100 := pm25 + uint16(s.rng.Intn(10))

	words := []uint16{
		28, // frame length field
		pm10 + 1, pm25 + 2, pm100 + 2, // CF=1
		pm10, pm25, pm100, // atmospheric
		pm25 * 150, pm25 * 40, pm25 * 6, uint16(s.rng.Intn(40)), uint16(s.rng.Intn(12)), uint16(s.rng.Intn(6)),
		0, // reserved
	}

	frame := []byte{0x42, 0x4D}
	for _, w := range words {
		frame = append(frame, byte(w>>8), byte(w))
	}

	var sum uint16
	for _, b := range frame {
		sum += uint16(b)
	}
	return append(frame, byte(sum>>8), byte(sum))
}

// ackFrame builds a 6-byte command acknowledgement.
func ackFrame(opcode, data byte) []byte {
	frame := []byte{0x42, 0x4D, 0x00, 0x04, opcode, data}

	var sum uint16
	for _, b := range frame {
		sum += uint16(b)
	}
	return append(frame, byte(sum>>8), byte(sum))
}
