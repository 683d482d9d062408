package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// appNameHook tags every entry with the service name: a message prefix for
// text output, an "app" field for JSON.
type appNameHook struct {
	appName string
	asField bool
}

func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *appNameHook) Fire(entry *logrus.Entry) error {
	if h.asField {
		entry.Data["app"] = h.appName
		return nil
	}
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

// InitLogger configures Logger from LOG_LEVEL (default info) and
// LOG_FORMAT (text or json, default text).
func InitLogger(appName string) {
	configureLogger(os.Stdout, appName, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func configureLogger(out io.Writer, appName, levelStr, format string) {
	Logger.SetOutput(out)
	Logger.ReplaceHooks(make(logrus.LevelHooks))

	levelStr = strings.ToLower(levelStr)
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", levelStr)
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	asJSON := strings.EqualFold(format, "json")
	if asJSON {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if appName != "" {
		Logger.AddHook(&appNameHook{appName: appName, asField: asJSON})
	}
}
