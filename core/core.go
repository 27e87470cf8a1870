package core

import "github.com/hupe1980/semanticmemory/logging"

// LoggerAdapter is embedded by memories, stores and tools so they can log
// through LogDebug and friends without nil checks.
type LoggerAdapter struct {
	logger logging.Logger
}

// NewLoggerAdapter falls back to logging.NoOpLogger for a nil l.
func NewLoggerAdapter(l logging.Logger) *LoggerAdapter {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &LoggerAdapter{logger: l}
}

func (a *LoggerAdapter) Logger() logging.Logger { return a.logger }

func (a *LoggerAdapter) LogDebug(msg string, args ...any) { a.logger.Debug(msg, args...) }
func (a *LoggerAdapter) LogInfo(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *LoggerAdapter) LogWarn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *LoggerAdapter) LogError(msg string, args ...any) { a.logger.Error(msg, args...) }
