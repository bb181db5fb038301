package logging

import (
	"io"
	"maps"
	"slices"

	"github.com/go-kratos/kratos/v2/log"
)

// KratosLogger writes key=value lines through a kratos logger.
type KratosLogger struct {
	logger log.Logger
}

func NewKratosLogger(w io.Writer, level string) *KratosLogger {
	base := log.With(log.NewStdLogger(w), "ts", log.DefaultTimestamp)
	return &KratosLogger{
		logger: log.NewFilter(base, log.FilterLevel(log.ParseLevel(level))),
	}
}

func (l *KratosLogger) log(level log.Level, msg string, fields map[string]any) {
	keyvals := make([]any, 0, 2+2*len(fields))
	keyvals = append(keyvals, log.DefaultMessageKey, msg)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		keyvals = append(keyvals, k, fields[k])
	}
	_ = l.logger.Log(level, keyvals...)
}

func (l *KratosLogger) Info(msg string, fields map[string]any) {
	l.log(log.LevelInfo, msg, fields)
}

func (l *KratosLogger) Error(msg string, fields map[string]any) {
	l.log(log.LevelError, msg, fields)
}
