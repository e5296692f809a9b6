package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dustwatch/pms-controller/pms7003"
)

const (
	resultOK            = "ok"
	resultChecksumError = "checksum_error"
	resultCommError     = "comm_error"
)

var (
	massLabels     = []string{"mode", "size", "condition"}
	particleLabels = []string{"mode", "size"}

	massGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pms",
		Subsystem: "sensor",
		Name:      "pm_concentration_ugm3",
	}, massLabels)
	particleGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pms",
		Subsystem: "sensor",
		Name:      "particle_count_per_dl",
	}, particleLabels)
	readsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pms",
		Subsystem: "sensor",
		Name:      "reads_total",
	}, []string{"result"})
	awakeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pms",
		Subsystem: "sensor",
		Name:      "awake",
	})
)

// newMetricsHandler builds the /metrics handler over a private registry.
func newMetricsHandler() http.Handler {
	reg := prometheus.NewRegistry()

	// Add Go module build info.
	reg.MustRegister(collectors.NewBuildInfoCollector())
	reg.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollections(collectors.GoRuntimeMemStatsCollection | collectors.GoRuntimeMetricsCollection),
	))

	reg.MustRegister(massGauge)
	reg.MustRegister(particleGauge)
	reg.MustRegister(readsTotal)
	reg.MustRegister(awakeGauge)

	awakeGauge.Set(1)

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
	})
}

func prometheusRecordReading(mode string, r *pms7003.Reading) {
	mass := func(size, condition string, v uint16) {
		massGauge.With(prometheus.Labels{"mode": mode, "size": size, "condition": condition}).Set(float64(v))
	}
	mass("pm1_0", "standard", r.Pm10Std)
	mass("pm2_5", "standard", r.Pm25Std)
	mass("pm10", "standard", r.Pm100Std)
	mass("pm1_0", "atmospheric", r.Pm10Atm)
	mass("pm2_5", "atmospheric", r.Pm25Atm)
	mass("pm10", "atmospheric", r.Pm100Atm)

	particles := func(size string, v uint16) {
		particleGauge.With(prometheus.Labels{"mode": mode, "size": size}).Set(float64(v))
	}
	particles("0_3um", r.Particles3um)
	particles("0_5um", r.Particles5um)
	particles("1_0um", r.Particles10um)
	particles("2_5um", r.Particles25um)
	particles("5_0um", r.Particles50um)
	particles("10um", r.Particles100um)
}

func prometheusRecordResult(result string) {
	readsTotal.With(prometheus.Labels{"result": result}).Inc()
}

func prometheusRecordAwake(awake bool) {
	if awake {
		awakeGauge.Set(1)
	} else {
		awakeGauge.Set(0)
	}
}
