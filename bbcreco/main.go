package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	bbcreco "github.com/next-exp/bbcreco_go/pkg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var configuration bbcreco.Configuration

var (
	logger         bbcreco.TextLogger
	VerbosityLevel int
)

func init() {
	logger = bbcreco.NewTextLogger(os.Stdout, os.Stderr)
}

func main() {
	if err := run(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	bbcreco.SetConfiguration(configuration)
	bbcreco.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Reading configuration file: %s", *configFilename), "main")
		printConfiguration(configuration, logger)
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	fileReader := NewFileReader(file, configuration.Skip, configuration.MaxEvents)
	first, err := fileReader.getNextEvent()
	if err != nil {
		if errors.Is(err, io.EOF) {
			logger.Info("No events to process", "main")
			return nil
		}
		return fmt.Errorf("error reading first event: %w", err)
	}

	runNumber := configuration.RunNumber
	if runNumber == 0 {
		runNumber = int(first.RunNumber)
	}
	store, err := loadCalibration(runNumber)
	if err != nil {
		return fmt.Errorf("error loading calibration: %w", err)
	}

	var metrics *bbcreco.Metrics
	if configuration.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		metrics = bbcreco.NewMetrics(registry)
		server := serveMetrics(configuration.MetricsAddr, registry)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}()
	}

	processor := bbcreco.NewProcessor(store, bbcreco.ProcessorOptions{
		LockEvents:     configuration.LockEvents,
		TimeResolution: configuration.TimeResolution,
		Metrics:        metrics,
	})

	loop := &eventLoop{processor: processor}
	if configuration.WriteData {
		writer, err := bbcreco.NewWriter(configuration.FileOut)
		if err != nil {
			return fmt.Errorf("error creating output: %w", err)
		}
		loop.writer = writer
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error(err.Error())
			}
		}()
	}

	jobs := make(chan bbcreco.RawEvent, 100)
	readErr := make(chan error, 1)
	go func() {
		jobs <- first
		readErr <- sendEventsToProcessor(fileReader, jobs)
	}()
	summary := loop.run(jobs)

	message := fmt.Sprintf("Processed %d events in %d ms: %d calibrated, %d with vertex, %d written, %d failed",
		summary.Events, summary.Elapsed.Milliseconds(), summary.Calibrated, summary.Vertices,
		summary.Written, summary.Failed)
	logger.Info(message, "main")

	if err := <-readErr; err != nil {
		return err
	}
	if loop.writeErr != nil {
		return fmt.Errorf("output %s is incomplete: %w", configuration.FileOut, loop.writeErr)
	}
	return nil
}

func loadCalibration(runNumber int) (*bbcreco.CalibrationStore, error) {
	if configuration.CalibSource == bbcreco.CalibFromFiles {
		return bbcreco.LoadCalibrationFromDir(configuration.CalibDir)
	}

	dbConn, err := bbcreco.ConnectToDatabase(configuration.DBDriver, configuration.User,
		configuration.Passwd, configuration.Host, configuration.DBName, configuration.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	defer dbConn.Close()
	return bbcreco.LoadCalibrationFromDB(dbConn, runNumber)
}

func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Errorf("metrics server: %w", err).Error())
		}
	}()
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Serving metrics on %s/metrics", addr), "main")
	}
	return server
}
