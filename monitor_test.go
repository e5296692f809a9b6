package main

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dustwatch/pms-controller/pms7003"
)

// sealFrame appends the additive checksum to a marker-prefixed frame.
func sealFrame(frame []byte) []byte {
	var sum uint16
	for _, b := range frame {
		sum += uint16(b)
	}
	return append(frame, byte(sum>>8), byte(sum))
}

// testReadingFrame builds a complete measurement frame whose
// atmospheric PM2.5 value is pm25.
func testReadingFrame(pm25 uint16) []byte {
	words := []uint16{28, 0, 0, 0, 0, pm25, 0, 0, 0, 0, 0, 0, 0, 0}

	frame := []byte{0x42, 0x4D}
	for _, w := range words {
		frame = append(frame, byte(w>>8), byte(w))
	}
	return sealFrame(frame)
}

func testAckFrame(opcode, data byte) []byte {
	return sealFrame([]byte{0x42, 0x4D, 0x00, 0x04, opcode, data})
}

// scriptedConn feeds pre-queued frames to the driver and acknowledges
// sleep commands. An exhausted queue reads as a transport failure.
type scriptedConn struct {
	mu      sync.Mutex
	pending bytes.Buffer
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending.Len() == 0 {
		return 0, io.EOF
	}
	return c.pending.Read(p)
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(p) == 7 && p[2] == 0xE4 && p[4] == 0 {
		c.pending.Write(testAckFrame(p[2], p[4]))
	}
	return len(p), nil
}

func (c *scriptedConn) Close() error { return nil }

func (c *scriptedConn) queue(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Write(frame)
}

func newTestMonitor(cfg MonitorSettings) (*Monitor, *scriptedConn) {
	conn := &scriptedConn{}
	sensor := pms7003.New(conn, pms7003.WithResponseDelay(0))
	return NewMonitor(sensor, cfg, zap.NewNop()), conn
}

func TestMonitorCollectsReading(t *testing.T) {
	m, conn := newTestMonitor(MonitorSettings{Mode: "active", MaxFailures: 3})
	conn.queue(testReadingFrame(17))

	updates := make(chan ReadingUpdate, 1)
	m.AddListener(updates)

	m.pollOnce()

	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, uint16(17), latest.Reading.Pm25Atm)
	assert.WithinDuration(t, time.Now(), latest.At, time.Second)

	select {
	case update := <-updates:
		assert.Equal(t, latest.Reading, update.Reading)
	default:
		t.Fatal("listener did not receive the update")
	}

	ok2, checksum, comm := m.Counters()
	assert.Equal(t, uint64(1), ok2)
	assert.Zero(t, checksum)
	assert.Zero(t, comm)
}

func TestMonitorCountsCorruptFrame(t *testing.T) {
	m, conn := newTestMonitor(MonitorSettings{Mode: "active", MaxFailures: 3})

	frame := testReadingFrame(17)
	frame[len(frame)-1] ^= 0x01
	conn.queue(frame)

	m.pollOnce()

	_, ok := m.Latest()
	assert.False(t, ok, "corrupt frame must not become a reading")

	okCount, checksum, comm := m.Counters()
	assert.Zero(t, okCount)
	assert.Equal(t, uint64(1), checksum)
	assert.Zero(t, comm)
	assert.True(t, m.Healthy(), "a checksum error alone is not unhealthy")
}

func TestMonitorUnhealthyAfterConsecutiveFailures(t *testing.T) {
	m, _ := newTestMonitor(MonitorSettings{Mode: "active", MaxFailures: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, m.Healthy())
		m.pollOnce()
	}
	assert.False(t, m.Healthy())

	_, _, comm := m.Counters()
	assert.Equal(t, uint64(3), comm)
}

func TestMonitorFailureCountResets(t *testing.T) {
	m, conn := newTestMonitor(MonitorSettings{Mode: "active", MaxFailures: 2})

	m.pollOnce()
	conn.queue(testReadingFrame(5))
	m.pollOnce()
	m.pollOnce()

	assert.True(t, m.Healthy(), "a good read must reset the failure count")
}

func TestMonitorSleepWake(t *testing.T) {
	m, _ := newTestMonitor(MonitorSettings{Mode: "active", MaxFailures: 3, WarmupDelay: time.Hour})

	require.True(t, m.Awake())
	require.True(t, m.ready())

	require.NoError(t, m.Sleep())
	assert.False(t, m.Awake())
	assert.False(t, m.ready(), "poll loop must pause while sleeping")

	// Sleeping twice is a no-op, not an error.
	require.NoError(t, m.Sleep())

	require.NoError(t, m.Wakeup())
	assert.True(t, m.Awake())
	assert.False(t, m.ready(), "reads must wait out the warm-up delay")
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode("active")
	require.NoError(t, err)
	assert.Equal(t, pms7003.ModeActive, mode)

	mode, err = parseMode("passive")
	require.NoError(t, err)
	assert.Equal(t, pms7003.ModePassive, mode)

	_, err = parseMode("turbo")
	assert.Error(t, err)
}
