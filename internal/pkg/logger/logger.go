package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger: JSON in production, text
// otherwise. An unknown level falls back to info.
func Setup(appEnv, level string) {
	logrus.SetOutput(os.Stdout)

	switch strings.ToLower(appEnv) {
	case "prod", "production", "release":
		logrus.SetFormatter(new(logrus.JSONFormatter))
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
