package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging applies the log level and format to the standard logrus
// logger and returns it.
func ConfigureLogging(cfg *Config) (*logrus.Logger, error) {
	logger := logrus.StandardLogger()
	if err := applyLogging(logger, cfg.Log); err != nil {
		return nil, err
	}
	logger.SetOutput(os.Stdout)
	return logger, nil
}

func applyLogging(logger *logrus.Logger, cfg LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return nil
}
