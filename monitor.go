package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dustwatch/pms-controller/pms7003"
)

// ReadingUpdate is delivered to listeners for every decoded measurement.
type ReadingUpdate struct {
	Reading pms7003.Reading `json:"reading"`
	At      time.Time       `json:"at"`
}

// Monitor owns the sensor session and serializes all access to it. The
// driver itself is single-threaded by contract; the Monitor is the one
// place holding the lock around it.
//
// Checksum mismatches are counted and the read retried on the next
// cycle (resynchronization happens naturally on the next marker scan).
// Communication errors mark the sensor unhealthy once MaxFailures
// occur consecutively.
type Monitor struct {
	lock   sync.Mutex
	sensor *pms7003.Sensor
	log    *zap.Logger
	cfg    MonitorSettings

	latest    *ReadingUpdate
	failures  int
	sleeping  bool
	warmUntil time.Time

	readOK       uint64
	readChecksum uint64
	readComm     uint64

	listeners []chan ReadingUpdate
}

func NewMonitor(sensor *pms7003.Sensor, cfg MonitorSettings, log *zap.Logger) *Monitor {
	return &Monitor{
		sensor: sensor,
		log:    log,
		cfg:    cfg,
	}
}

// parseMode maps a config string to a driver mode.
func parseMode(s string) (pms7003.Mode, error) {
	switch s {
	case "active":
		return pms7003.ModeActive, nil
	case "passive":
		return pms7003.ModePassive, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want active or passive)", s)
}

func (m *Monitor) AddListener(ch chan ReadingUpdate) {
	m.doLocked(func() error {
		m.listeners = append(m.listeners, ch)
		return nil
	})
}

func (m *Monitor) RemoveListener(ch chan ReadingUpdate) {
	m.doLocked(func() error {
		for i, l := range m.listeners {
			if l == ch {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				break
			}
		}
		return nil
	})
}

// Run applies the configured reporting mode and polls the sensor until
// the context is cancelled. Blocking reads are unstuck on shutdown by
// closing the sensor from the supervising goroutine.
func (m *Monitor) Run(ctx context.Context) error {
	mode, err := parseMode(m.cfg.Mode)
	if err != nil {
		return err
	}

	// The device-side mode persists across restarts, so always set it
	// explicitly rather than trusting the factory default.
	if err := m.SetMode(mode); err != nil {
		m.log.Warn("could not set reporting mode, continuing with device state unknown",
			zap.String("mode", mode.String()), zap.Error(err))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !m.ready() {
			if !sleepCtx(ctx, 500*time.Millisecond) {
				return ctx.Err()
			}
			continue
		}

		m.pollOnce()

		// Active mode paces itself on the sensor's ~1Hz push rate; in
		// passive mode we decide the cadence.
		if mode == pms7003.ModePassive {
			if !sleepCtx(ctx, m.cfg.PollInterval) {
				return ctx.Err()
			}
		}
	}
}

func (m *Monitor) pollOnce() {
	var reading *pms7003.Reading

	err := m.doLocked(func() error {
		var err error
		reading, err = m.sensor.Read()
		return err
	})

	switch {
	case err == nil:
		update := ReadingUpdate{Reading: *reading, At: time.Now()}
		m.doLocked(func() error {
			m.latest = &update
			m.failures = 0
			m.readOK++
			return nil
		})
		prometheusRecordReading(m.cfg.Mode, reading)
		prometheusRecordResult(resultOK)
		m.notifyListeners(update)

	case errors.Is(err, pms7003.ErrChecksumMismatch):
		m.doLocked(func() error {
			m.readChecksum++
			return nil
		})
		prometheusRecordResult(resultChecksumError)
		m.log.Warn("discarded corrupt frame", zap.Error(err))

	default:
		var failures int
		m.doLocked(func() error {
			m.failures++
			m.readComm++
			failures = m.failures
			return nil
		})
		prometheusRecordResult(resultCommError)
		if failures >= m.cfg.MaxFailures {
			m.log.Error("sensor unhealthy", zap.Int("consecutive_failures", failures), zap.Error(err))
		} else {
			m.log.Warn("sensor read failed", zap.Error(err))
		}
	}
}

// Latest returns the most recent reading, if any has been collected.
func (m *Monitor) Latest() (ReadingUpdate, bool) {
	var update ReadingUpdate
	var ok bool
	m.doLocked(func() error {
		if m.latest != nil {
			update = *m.latest
			ok = true
		}
		return nil
	})
	return update, ok
}

// Healthy reports whether the sensor is awake and under the
// consecutive-failure threshold.
func (m *Monitor) Healthy() bool {
	var healthy bool
	m.doLocked(func() error {
		healthy = !m.sleeping && m.failures < m.cfg.MaxFailures
		return nil
	})
	return healthy
}

// Awake reports whether the sensor is out of sleep (it may still be
// warming up).
func (m *Monitor) Awake() bool {
	var awake bool
	m.doLocked(func() error {
		awake = !m.sleeping
		return nil
	})
	return awake
}

// SetMode switches the device's reporting mode through the session.
func (m *Monitor) SetMode(mode pms7003.Mode) error {
	return m.doLocked(func() error {
		return m.sensor.SetMode(mode)
	})
}

// Sleep stops the sensor; the poll loop pauses until Wakeup.
func (m *Monitor) Sleep() error {
	changed := false
	err := m.doLocked(func() error {
		if m.sleeping {
			return nil
		}
		if err := m.sensor.Sleep(); err != nil {
			return err
		}
		m.sleeping = true
		changed = true
		return nil
	})
	if changed {
		prometheusRecordAwake(false)
		m.log.Info("sensor sleeping")
	}
	return err
}

// Wakeup restarts the sensor. Readings resume after the warm-up delay
// so the fan can circulate air (30s per datasheet).
func (m *Monitor) Wakeup() error {
	changed := false
	err := m.doLocked(func() error {
		if !m.sleeping {
			return nil
		}
		if err := m.sensor.Wakeup(); err != nil {
			return err
		}
		m.sleeping = false
		m.warmUntil = time.Now().Add(m.cfg.WarmupDelay)
		changed = true
		return nil
	})
	if changed {
		prometheusRecordAwake(true)
		m.log.Info("sensor waking", zap.Duration("warmup", m.cfg.WarmupDelay))
	}
	return err
}

// Counters returns the cumulative read outcome tallies.
func (m *Monitor) Counters() (ok, checksum, comm uint64) {
	m.doLocked(func() error {
		ok, checksum, comm = m.readOK, m.readChecksum, m.readComm
		return nil
	})
	return
}

// ready reports whether the poll loop should attempt a read.
func (m *Monitor) ready() bool {
	var ready bool
	m.doLocked(func() error {
		ready = !m.sleeping && time.Now().After(m.warmUntil)
		return nil
	})
	return ready
}

func (m *Monitor) notifyListeners(update ReadingUpdate) {
	m.doLocked(func() error {
		for _, ch := range m.listeners {
			select {
			case ch <- update:
			default:
			}
		}
		return nil
	})
}

func (m *Monitor) doLocked(fn func() error) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return fn()
}

// sleepCtx waits for d or until the context is cancelled; it reports
// whether the full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
