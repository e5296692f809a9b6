// Package pms7003 implements support for the Plantower PMS7003
// particulate matter sensor over its 9600 8N1 serial link.
//
// Datasheet: https://download.kamami.pl/p564008-PMS7003%20series%20data%20manua_English_V2.5.pdf
//
// The sensor powers up in active mode, continuously pushing measurement
// frames. In passive mode it only answers explicit read commands. Mode
// changes persist on the device after the session ends, so callers must
// track device-side state across reconnects.
package pms7003

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.bug.st/serial"
)

// Mode selects how the sensor reports measurements.
type Mode uint8

const (
	// ModeActive has the sensor push measurement frames unsolicited.
	ModeActive Mode = iota
	// ModePassive has the sensor emit a frame only when asked.
	ModePassive
)

func (m Mode) String() string {
	switch m {
	case ModeActive:
		return "active"
	case ModePassive:
		return "passive"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// readTimeout bounds every serial read. The sensor emits a frame
// roughly once per second in active mode.
const readTimeout = 2 * time.Second

// Sensor is a session with one PMS7003. It owns its transport
// exclusively; operations block the calling goroutine for the duration
// of the underlying I/O, including the fixed wait before command
// replies. Not safe for concurrent use without external locking.
type Sensor struct {
	conn          io.ReadWriteCloser
	mode          Mode
	responseDelay time.Duration
	closed        bool
}

// Option adjusts a Sensor at construction.
type Option func(*Sensor)

// WithResponseDelay overrides the wait between writing a command and
// reading its reply. Intended for tests and simulators; real hardware
// needs the documented 2.3s.
func WithResponseDelay(d time.Duration) Option {
	return func(s *Sensor) {
		s.responseDelay = d
	}
}

// New wraps an already-open byte stream in a session. The session
// assumes the device is in its factory-default active mode.
func New(conn io.ReadWriteCloser, opts ...Option) *Sensor {
	s := &Sensor{
		conn:          conn,
		mode:          ModeActive,
		responseDelay: defaultResponseDelay,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open opens the named serial device with the sensor's fixed wire
// settings and returns a session over it.
func Open(device string, opts ...Option) (*Sensor, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSensorComm, device, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: set read timeout: %v", ErrSensorComm, err)
	}

	return New(&serialConn{port: port}, opts...), nil
}

// serialConn adapts a serial.Port to io.ReadWriteCloser semantics: the
// port reports an elapsed read timeout as a zero-byte read with nil
// error, which would spin io.ReadFull forever.
type serialConn struct {
	port serial.Port
}

func (c *serialConn) Read(p []byte) (int, error) {
	n, err := c.port.Read(p)
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (c *serialConn) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

func (c *serialConn) Close() error {
	return c.port.Close()
}

// Mode reports the mode this session has confirmed. The device-side
// mode persists across sessions, so a fresh session over a device left
// passive still reports active until SetMode is called.
func (s *Sensor) Mode() Mode {
	return s.mode
}

// Read collects one measurement. In active mode it synchronizes on the
// next unsolicited frame; in passive mode it issues a read command and
// decodes the reply. The result is identical either way.
func (s *Sensor) Read() (*Reading, error) {
	var payload []byte
	var err error

	if s.mode == ModePassive {
		payload, err = s.request(cmdPassiveRead, 0, readingFrameLen)
	} else {
		payload, err = syncFrame(s.conn, readingFrameLen)
	}
	if err != nil {
		return nil, err
	}

	return decodeReading(payload)
}

// SetMode switches the sensor between active and passive reporting.
// The session's local mode updates only once the device acknowledges;
// on any failure the previous mode is kept. The change persists on the
// device beyond this session.
func (s *Sensor) SetMode(mode Mode) error {
	var data uint16
	switch mode {
	case ModeActive:
		data = 1
	case ModePassive:
		data = 0
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}

	if err := s.requestAck(cmdSetMode, data); err != nil {
		return err
	}

	s.mode = mode
	return nil
}

// Wakeup brings the sensor out of sleep. The device sends no reply to
// this command, so none is read. Allow around 30s of fan spin-up
// before trusting readings.
func (s *Sensor) Wakeup() error {
	return s.send(cmdSleepWake, 1)
}

// Sleep stops the fan and measurement. The device acknowledges; the
// acknowledgement is validated like any other frame.
func (s *Sensor) Sleep() error {
	return s.requestAck(cmdSleepWake, 0)
}

// Close releases the transport. Safe to call more than once.
func (s *Sensor) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
