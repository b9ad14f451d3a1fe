package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the global logger from the log level and environment
func SetupLogging(level, environment string) {
	log.SetOutput(os.Stdout)

	if environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
