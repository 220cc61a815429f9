package model

//
// Logger
//

// Logger is the logger used by the upload client. Its method set is a
// subset of apex/log's, so a *log.Logger can be used directly.
type Logger interface {
	Debug(msg string)
	Debugf(format string, v ...interface{})
	Info(msg string)
	Infof(format string, v ...interface{})
	Warn(msg string)
	Warnf(format string, v ...interface{})
}

// DiscardLogger is a [Logger] dropping every message.
var DiscardLogger Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Debug(msg string)                       {}
func (discardLogger) Debugf(format string, v ...interface{}) {}
func (discardLogger) Info(msg string)                        {}
func (discardLogger) Infof(format string, v ...interface{})  {}
func (discardLogger) Warn(msg string)                        {}
func (discardLogger) Warnf(format string, v ...interface{})  {}

// ValidLoggerOrDefault returns logger, or [DiscardLogger] when logger is nil.
func ValidLoggerOrDefault(logger Logger) Logger {
	if logger != nil {
		return logger
	}
	return DiscardLogger
}
