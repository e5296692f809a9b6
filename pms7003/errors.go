package pms7003

import "errors"

var (
	// ErrSensorComm indicates a communication problem that is unlikely
	// to re-occur, such as a read timing out mid-frame. The caller may
	// retry the operation.
	ErrSensorComm = errors.New("sensor communication failed")

	// ErrChecksumMismatch indicates a fully received frame failed its
	// integrity check. The data is corrupt or the stream has lost
	// frame alignment; retrying resynchronizes on the next marker.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidMode indicates a mode value outside active/passive.
	// Detected before any I/O takes place.
	ErrInvalidMode = errors.New("invalid mode")
)
