package main

//
// Logging functionality
//

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
)

// logStartTime is the time when we started logging
var logStartTime = time.Now()

// levelColors maps levels to colors.
var levelColors = [...]*color.Color{
	log.DebugLevel: color.New(color.FgWhite),
	log.InfoLevel:  color.New(color.FgBlue),
	log.WarnLevel:  color.New(color.FgYellow),
	log.ErrorLevel: color.New(color.FgRed),
	log.FatalLevel: color.New(color.FgRed),
}

// logHandler implements the log handler required by github.com/apex/log
type logHandler struct {
	// Writer is the underlying writer
	io.Writer

	// mu provides mutual exclusion
	mu sync.Mutex
}

var _ log.Handler = &logHandler{}

// newLogHandler creates a handler writing to w.
func newLogHandler(w io.Writer) *logHandler {
	if f, ok := w.(*os.File); ok {
		w = colorable.NewColorable(f)
	}
	return &logHandler{Writer: w}
}

// HandleLog implements log.Handler
func (h *logHandler) HandleLog(e *log.Entry) (err error) {
	level := fmt.Sprintf("<%s>", e.Level)
	if int(e.Level) >= 0 && int(e.Level) < len(levelColors) {
		level = levelColors[e.Level].Sprint(level)
	}
	s := fmt.Sprintf("[%14.6f] %s %s", time.Since(logStartTime).Seconds(), level, e.Message)
	if len(e.Fields) > 0 {
		s += fmt.Sprintf(": %+v", e.Fields)
	}
	s += "\n"
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.Writer.Write([]byte(s))
	return
}

// newLogger creates the logger used by the subcommands.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := &log.Logger{Level: log.InfoLevel, Handler: newLogHandler(w)}
	if verbose {
		logger.Level = log.DebugLevel
	}
	return logger
}
