package model

import "testing"

func TestDiscardLoggerWorksAsIntended(t *testing.T) {
	logger := DiscardLogger
	logger.Debug("foo")
	logger.Debugf("%s", "foo")
	logger.Info("foo")
	logger.Infof("%s", "foo")
	logger.Warn("foo")
	logger.Warnf("%s", "foo")
}

func TestValidLoggerOrDefault(t *testing.T) {
	t.Run("with a nil logger", func(t *testing.T) {
		if ValidLoggerOrDefault(nil) != DiscardLogger {
			t.Fatal("expected the DiscardLogger")
		}
	})

	t.Run("with a non-nil logger", func(t *testing.T) {
		logger := &savingLogger{}
		if ValidLoggerOrDefault(logger) != logger {
			t.Fatal("expected the original logger")
		}
	})
}

type savingLogger struct{}

func (*savingLogger) Debug(msg string)                       {}
func (*savingLogger) Debugf(format string, v ...interface{}) {}
func (*savingLogger) Info(msg string)                        {}
func (*savingLogger) Infof(format string, v ...interface{})  {}
func (*savingLogger) Warn(msg string)                        {}
func (*savingLogger) Warnf(format string, v ...interface{})  {}
