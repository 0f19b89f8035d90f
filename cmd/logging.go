package cmd

import (
	"os"

	"wagerly/config"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured level and formatter to the global logger
func ConfigureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
