package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is usable before InitLogger is called; InitLogger only reconfigures it.
var Log = logrus.New()

func InitLogger() {
	// Output to stdout instead of the default stderr
	Log.Out = os.Stdout

	// Set JSON formatter for structured logging
	Log.SetFormatter(&logrus.JSONFormatter{})

	Log.SetLevel(logrus.InfoLevel)
}

// SetLevel applies a textual level such as "debug" or "warn". Unknown values
// leave the current level untouched.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.Warnf("Unknown log level %q, keeping %s", level, Log.GetLevel())
		return
	}
	Log.SetLevel(lvl)
	logrus.SetLevel(lvl)
}
