package common

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// LogFileName is the arbor file writer's output inside LogDirectory
const LogFileName = "serendib.log"

const (
	defaultTimeFormat = "15:04:05"
	logRotateSize     = 100 << 20
	logRotateBackups  = 3
)

var (
	loggerMu sync.Mutex
	logger   arbor.ILogger
)

// GetLogger returns the logger set by InitLogger, or a console logger when
// called before configuration is loaded
func GetLogger() arbor.ILogger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger = arbor.NewLogger().WithConsoleWriter(consoleWriter(defaultTimeFormat))
	}
	return logger
}

// InitLogger builds the process logger from the [logging] section and makes
// it the one GetLogger returns
func InitLogger(config *Config) arbor.ILogger {
	cfg := config.Logging
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}

	l := arbor.NewLogger()
	if slices.Contains(cfg.Output, "file") {
		dir := LogDirectory()
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "file logging disabled, cannot create %s: %v\n", dir, err)
		} else {
			l = l.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(dir, LogFileName),
				TimeFormat: timeFormat,
				MaxSize:    logRotateSize,
				MaxBackups: logRotateBackups,
			})
		}
	}
	if slices.Contains(cfg.Output, "stdout") || slices.Contains(cfg.Output, "console") {
		l = l.WithConsoleWriter(consoleWriter(timeFormat))
	}
	l = l.WithLevelFromString(cfg.Level)

	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
	return l
}

func consoleWriter(timeFormat string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: timeFormat,
	}
}

// LogDirectory is ./logs beside the executable, or ./logs in the working
// directory when the executable path is unknown
func LogDirectory() string {
	exe, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(exe), "logs")
}
