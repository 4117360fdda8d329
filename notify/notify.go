// Package notify delivers human-readable trading events to the log and to
// optional outbound sinks (Discord, websocket clients).
//
// Delivery is fire-and-forget: sink failures are logged and never returned,
// so a broken webhook cannot change trading behaviour.
package notify

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Level is the severity of an event.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ParseLevel maps config strings to a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Slog converts the level to its slog equivalent.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Event is a single notification.
type Event struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Level   Level     `json:"level"`
	Time    time.Time `json:"time"`
}

// Sink is an outbound delivery channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// Notifier is the logging and notification handle passed into every component.
type Notifier struct {
	log      *slog.Logger
	sinks    []Sink
	minLevel slog.Level
	now      func() time.Time
}

// New returns a Notifier that logs through log and forwards events at info
// level or above to sinks.
func New(log *slog.Logger, sinks ...Sink) *Notifier {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{
		log:      log,
		sinks:    sinks,
		minLevel: slog.LevelInfo,
		now:      time.Now,
	}
}

// Nop returns a Notifier that drops everything. Useful in tests.
func Nop() *Notifier {
	return New(nil)
}

// SetSinkLevel changes the minimum level forwarded to sinks.
func (n *Notifier) SetSinkLevel(l Level) {
	n.minLevel = l.Slog()
}

// Logger exposes the underlying structured logger.
func (n *Notifier) Logger() *slog.Logger {
	return n.log
}

// Notify logs the event and forwards it to every sink.
func (n *Notifier) Notify(ctx context.Context, level Level, title, message string) {
	ev := Event{
		Title:   title,
		Message: message,
		Level:   level,
		Time:    n.now(),
	}

	n.log.Log(ctx, level.Slog(), message, slog.String("title", title))

	if level.Slog() < n.minLevel {
		return
	}
	for _, s := range n.sinks {
		if err := s.Send(ctx, ev); err != nil {
			n.log.Error("notification delivery failed",
				slog.String("sink", s.Name()),
				slog.String("title", title),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (n *Notifier) Debug(ctx context.Context, title, message string) {
	n.Notify(ctx, LevelDebug, title, message)
}

func (n *Notifier) Info(ctx context.Context, title, message string) {
	n.Notify(ctx, LevelInfo, title, message)
}

func (n *Notifier) Warn(ctx context.Context, title, message string) {
	n.Notify(ctx, LevelWarning, title, message)
}

func (n *Notifier) Error(ctx context.Context, title, message string) {
	n.Notify(ctx, LevelError, title, message)
}
