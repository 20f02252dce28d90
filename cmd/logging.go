package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures the global logrus logger: stderr, plus a rotating
// file when path is set. Colours only when stderr is a terminal.
func setupLogging(level, path string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors: !isTerminal || path != "",
		FullTimestamp: true,
	})

	var out io.Writer = os.Stderr
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	logrus.SetOutput(out)
	return nil
}
