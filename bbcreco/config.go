package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	bbcreco "github.com/next-exp/bbcreco_go/pkg"
)

const envPrefix = "BBCRECO_"

// LoadConfiguration layers, from low to high precedence, the built-in
// defaults, the configuration file (JSON or YAML) and BBCRECO_* variables.
func LoadConfiguration(filename string) (bbcreco.Configuration, error) {
	config := bbcreco.DefaultConfiguration()

	k := koanf.New(".")
	if filename != "" {
		if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return config, err
		}
	}

	// BBCRECO_FILE_IN -> file_in
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return config, err
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return config, err
	}

	if config.CalibDir == "" {
		config.CalibDir = os.Getenv(bbcreco.CalibDirEnv)
	}
	return config, validateConfiguration(config)
}

func validateConfiguration(config bbcreco.Configuration) error {
	switch config.CalibSource {
	case bbcreco.CalibFromFiles, bbcreco.CalibFromDB:
	default:
		return fmt.Errorf("unknown calib_source %q", config.CalibSource)
	}
	if config.TimeResolution <= 0 {
		return errors.New("time_resolution must be positive")
	}
	if config.LockEvents <= 0 {
		return errors.New("lock_events must be positive")
	}
	if config.FileIn == "" {
		return errors.New("file_in must not be empty")
	}
	if config.WriteData && config.FileOut == "" {
		return errors.New("file_out must not be empty when write_data is set")
	}
	return nil
}

func printConfiguration(config bbcreco.Configuration, logger bbcreco.Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Calibration source: %s", config.CalibSource), "config")
	logger.Info(fmt.Sprintf("Calibration dir: %s", config.CalibDir), "config")
	logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("DB path: %s", config.DBPath), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Time resolution: %g", config.TimeResolution), "config")
	logger.Info(fmt.Sprintf("Lock events: %d", config.LockEvents), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Metrics address: %s", config.MetricsAddr), "config")
	logger.Info(fmt.Sprintf("Discard: %t", config.Discard), "config")
}
