package monitor

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

const (
	EventInitialized    = "INITIALIZED"
	EventQueryAnalyzed  = "QUERY_ANALYZED"
	EventAgentsExecuted = "AGENTS_EXECUTED"
	EventCompleted      = "COMPLETED"
)

var _ contractx.Monitor = (*Logger)(nil)

// Logger reports component errors and health events through zerolog.
type Logger struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("source", "monitor").Logger()}
}

// FromGlobal wraps the process-wide zerolog logger.
func FromGlobal() *Logger {
	return New(log.Logger)
}

func (l *Logger) LogError(component, message string, fields map[string]any) {
	if l == nil {
		return
	}
	evt := l.logger.Error().Str("component", component)
	if len(fields) > 0 {
		evt = evt.Fields(fields)
	}
	evt.Msg(message)
}

func (l *Logger) LogHealth(component, event, detail string) {
	if l == nil {
		return
	}
	l.logger.Info().
		Str("component", component).
		Str("event", event).
		Str("detail", detail).
		Msg("health")
}

// Nop discards everything.
type Nop struct{}

func (Nop) LogError(string, string, map[string]any) {}
func (Nop) LogHealth(string, string, string)        {}

// OrNop returns m, or Nop when m is nil.
func OrNop(m contractx.Monitor) contractx.Monitor {
	if m == nil {
		return Nop{}
	}
	return m
}
