package pms7003

// Reading is a single decoded measurement frame. Values are raw sensor
// units: µg/m³ for mass concentrations, particle counts per 0.1L of air
// for the size bins.
type Reading struct {
	// PM1.0 concentration, CF=1 standard particle. Useful for
	// calibration/lab conditions, not representative outdoors.
	Pm10Std uint16
	// PM2.5 concentration, CF=1 standard particle
	Pm25Std uint16
	// PM10 concentration, CF=1 standard particle
	Pm100Std uint16
	// PM1.0 concentration under atmospheric environment
	Pm10Atm uint16
	// PM2.5 concentration under atmospheric environment
	Pm25Atm uint16
	// PM10 concentration under atmospheric environment
	Pm100Atm uint16
	// Number of particles with diameter beyond 0.3µm
	Particles3um uint16
	// Number of particles with diameter beyond 0.5µm
	Particles5um uint16
	// Number of particles with diameter beyond 1.0µm
	Particles10um uint16
	// Number of particles with diameter beyond 2.5µm
	Particles25um uint16
	// Number of particles with diameter beyond 5.0µm
	Particles50um uint16
	// Number of particles with diameter beyond 10µm
	Particles100um uint16
}

// decodeReading validates a 30-byte measurement payload and maps its
// words to named fields. Word 0 is the frame length field, words 1-12
// the measurements, word 13 reserved, word 14 the checksum. No Reading
// is constructed unless validation succeeds.
func decodeReading(payload []byte) (*Reading, error) {
	words := decodeWords(payload)
	if err := verifyChecksum(payload, words); err != nil {
		return nil, err
	}

	return &Reading{
		Pm10Std:        words[1],
		Pm25Std:        words[2],
		Pm100Std:       words[3],
		Pm10Atm:        words[4],
		Pm25Atm:        words[5],
		Pm100Atm:       words[6],
		Particles3um:   words[7],
		Particles5um:   words[8],
		Particles10um:  words[9],
		Particles25um:  words[10],
		Particles50um:  words[11],
		Particles100um: words[12],
	}, nil
}
