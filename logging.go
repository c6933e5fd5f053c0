package main

import (
	"fmt"
	"log"
	"os"

	"github.com/nir0k/logger"
)

// Logger is the leveled logging surface used throughout the tool
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// newLogger writes leveled logs to a rotating file and mirrors them on stderr
func newLogger(settings LoggingSettings) (Logger, error) {
	cfg := logger.LogConfig{
		FilePath:       settings.File,
		Format:         "standard",
		FileLevel:      settings.Level,
		ConsoleLevel:   settings.Level,
		ConsoleOutput:  true,
		EnableRotation: true,
		RotationConfig: logger.RotationConfig{
			MaxSize:    25,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
	}
	logInstance, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logInstance.ConsoleLogger = log.New(os.Stderr, "", log.LstdFlags)
	return logInstance, nil
}
