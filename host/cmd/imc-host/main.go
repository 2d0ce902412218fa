package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/peterh/liner"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"imcmotor/host/config"
	"imcmotor/host/imc"
	"imcmotor/host/observability"
	"imcmotor/host/serial"
	"imcmotor/protocol"
)

var (
	configPath  = flag.String("config", "", "TOML configuration file")
	device      = flag.String("device", "", "Serial device path (overrides config)")
	numAxes     = flag.Int("axes", 0, "Number of axes 1-4 (overrides config)")
	metricsAddr = flag.String("metrics", "", "Address to serve /metrics on (overrides config)")
	verbose     = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := observability.InitLogger("imc-host", cfg.Log.Level, cfg.Log.Console)

	fmt.Printf("iMC Host %s - Isel stepper controller driver\n", protocol.Version)
	fmt.Println("===============================================")

	logger.Info().Str("device", cfg.Controller.Device).Int("baud", cfg.Controller.Baud).Msg("opening serial port")
	port, err := serial.Open(cfg.Controller.Serial())
	if err != nil {
		return err
	}
	transport := serial.NewLineTransport(port)
	defer transport.Close()

	ctrl, err := imc.NewController(transport, cfg.Controller.Imc())
	if err != nil {
		return err
	}
	ctrl.SetLogger(logger)

	// The controller may still come up after a failed setup, keep going
	if err := ctrl.Init(); err != nil {
		logger.Error().Err(err).Msg("cannot initialise iMC controller")
	}

	if cfg.Metrics.Addr != "" {
		serveMetrics(cfg.Metrics.Addr, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := imc.NewPoller(ctrl, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("poller stopped")
		}
	}()

	sh := &shell{ctrl: ctrl, poller: poller, out: os.Stdout}
	err = sh.run(historyFile())

	stop()
	<-done
	return err
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return config.Config{}, err
		}
	}

	if *device != "" {
		cfg.Controller.Device = *device
	}
	if *numAxes != 0 {
		cfg.Controller.NumAxes = *numAxes
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	return cfg, cfg.Validate()
}

func serveMetrics(addr string, logger zerolog.Logger) {
	observability.RegisterMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".imc_history")
}

func saveHistory(line *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
