package logging

import (
	"io"

	nested "github.com/antonfisher/nested-logrus-formatter"
	log "github.com/sirupsen/logrus"
)

// Configure sets up the standard logrus logger. An unknown level keeps the
// current one and is reported back to the caller.
func Configure(level string) error {
	Apply(log.StandardLogger(), level)
	if _, err := log.ParseLevel(level); err != nil {
		return err
	}
	return nil
}

func Apply(logger *log.Logger, level string) {
	if l, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(l)
	}
	logger.SetFormatter(&nested.Formatter{
		HideKeys:        false,
		NoColors:        true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		FieldsOrder:     []string{"component", "request_id", "method", "path", "status"},
	})
}

// New returns a logger writing to out, mostly for tests.
func New(out io.Writer, level string) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)
	Apply(logger, level)
	return logger
}
