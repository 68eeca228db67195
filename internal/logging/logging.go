package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the rotating log file inside the log directory.
const LogFileName = "sla-tracker.log"

// Init initializes the global logger with dual sinks: os.Stderr and a rotating file.
// When the log directory is not writable the logger degrades to stderr only.
// The returned closer flushes the file sink and is safe to call when there is none.
func Init(verbose bool) io.Closer {
	// Init runs before config.Load, so LOGS_FOLDER may only live in the binary-relative .env.
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		if dataPath := os.Getenv("DATA_PATH"); dataPath != "" {
			logDir = filepath.Join(dataPath, "logs")
		} else if err == nil {
			logDir = filepath.Join(filepath.Dir(exePath), "logs")
		} else {
			logDir = "logs"
		}
	}

	fileWriter, ferr := newFileWriter(logDir)
	if ferr != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", ferr)
		log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
		return nopCloser{}
	}

	multi := zerolog.MultiLevelWriter(io.Writer(consoleWriter), fileWriter)
	log.Logger = zerolog.New(multi).
		With().
		Timestamp().
		Logger()
	return fileWriter
}

func newFileWriter(logDir string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}

	testFile := filepath.Join(logDir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return nil, fmt.Errorf("log directory %q is not writable: %w", logDir, err)
	}
	_ = os.Remove(testFile)

	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, LogFileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
