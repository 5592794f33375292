package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the global logger.
type Config struct {
	Level    string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format   string `yaml:"format" envconfig:"LOG_FORMAT"` // json or console
	Output   string `yaml:"output" envconfig:"LOG_OUTPUT"` // stdout, stderr or file
	FilePath string `yaml:"file_path" envconfig:"LOG_FILE"` // used when output is file
}

var Logger zerolog.Logger

// Init initializes the global logger with the provided configuration.
func Init(config Config) error {
	level := zerolog.InfoLevel
	if config.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(config.Level))
		if err != nil {
			return fmt.Errorf("invalid log level '%s': %w", config.Level, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer
	switch strings.ToLower(config.Output) {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	case "file":
		file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file '%s': %w", config.FilePath, err)
		}
		output = file
	default:
		output = os.Stdout
	}

	if strings.ToLower(config.Format) == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(output).With().
		Timestamp().
		Logger()

	log.Logger = Logger
	return nil
}

func init() {
	// Usable default before Init runs, mainly for tests.
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Convenience methods for common logging patterns
func Info() *zerolog.Event {
	return Logger.Info()
}

func Debug() *zerolog.Event {
	return Logger.Debug()
}

func Warn() *zerolog.Event {
	return Logger.Warn()
}

func Error() *zerolog.Event {
	return Logger.Error()
}
