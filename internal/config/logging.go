package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogging configures the global logrus logger. DEBUG wins over LOG_LEVEL.
func SetupLogging(cfg *Config) {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
