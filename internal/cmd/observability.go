package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/meetus/internal/config"
	"github.com/felixgeelhaar/meetus/internal/log"
	"github.com/felixgeelhaar/meetus/internal/version"
)

const logFileName = "meetus.log"

// setupLogging builds the process logger from cfg and installs it as the
// default. It returns a cleanup function that should be deferred by the caller.
func setupLogging(cfg *config.Config) (*log.Logger, func()) {
	info := version.GetInfo()

	output, _, cleanup := configureLogOutput(cfg)

	logger := log.New(log.Config{
		Level:          log.ParseLevel(cfg.Logging.Level),
		Format:         log.ParseFormat(cfg.Logging.Format),
		Output:         output,
		AddSource:      false,
		ServiceName:    "meetus",
		ServiceVersion: info.Version,
	})

	log.SetDefaultLogger(logger)

	// Nothing is logged to the terminal unless asked for; the TUI owns it.
	return logger, cleanup
}

// configureLogOutput returns the log destination, the log file path if one
// was opened, and a cleanup function closing it.
func configureLogOutput(cfg *config.Config) (log.Output, string, func()) {
	var writers []io.Writer

	if cfg.Logging.Stderr {
		writers = append(writers, os.Stderr)
	}

	var file *os.File
	var filePath string
	if cfg.Logging.EnableFile {
		dir := cfg.Logging.Dir
		if dir == "" {
			dir = filepath.Join(config.HomeDir(), "logs")
		}
		if err := os.MkdirAll(dir, 0o750); err == nil {
			path := filepath.Join(dir, logFileName)
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err == nil {
				file = f
				filePath = path
				writers = append(writers, f)
			}
		}
	}

	if len(writers) == 0 {
		return log.OutputDiscard(), "", func() {}
	}

	output := log.NewOutput(io.MultiWriter(writers...))
	cleanup := func() {
		if file != nil {
			_ = file.Close()
		}
	}
	return output, filePath, cleanup
}
