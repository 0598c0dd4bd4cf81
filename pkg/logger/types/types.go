package types

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a sugared zap logger tagged with its subsystem name.
type Logger struct {
	*zap.SugaredLogger
	LogsPath string
	Name     string
}

// Log is one entry as seen by a LogHook.
type Log struct {
	Timestamp  time.Time
	Caller     string
	LoggerName string
	Level      zapcore.Level
	Message    string
}

// String renders the entry for plain-text sinks such as a chat channel.
func (l Log) String() string {
	return fmt.Sprintf("%s [%s] %s\n%s\n%s",
		l.Timestamp.Format(time.DateTime),
		strings.ToUpper(l.Level.String()),
		l.LoggerName,
		l.Caller,
		l.Message,
	)
}

type LogHook func(log Log)
