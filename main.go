package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := mainImpl(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "pms-controller: %s.\n", err)
		os.Exit(1)
	}
}

func mainImpl(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to load config")
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to set up logging")
	}
	defer log.Sync()

	sensor, err := openSensor(&cfg.Serial)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open sensor on %s", cfg.Serial.Device)
	}
	defer sensor.Close()

	log.Info("sensor open",
		zap.String("device", cfg.Serial.Device),
		zap.String("mode", cfg.Monitor.Mode))

	monitor := NewMonitor(sensor, cfg.Monitor, log)

	if cfg.Mqtt.Enable {
		NewMQTTListener(&cfg.Mqtt, monitor, log).Start()
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.HTTP.MetricsPath, newMetricsHandler())
	NewWebSocketListener(monitor, log).Register(mux)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return monitor.Run(ctx)
	})

	group.Go(func() error {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)

		// Unstick any read blocked on the serial port.
		return sensor.Close()
	})

	log.Info("running")

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("shut down")
	return nil
}
