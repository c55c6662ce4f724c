package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface consumed by the engine.
// Users may provide their own implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// KernelLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It is cheap to copy via With* methods.
type KernelLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]any
	component string
	requestID string
}

// LoggerConfig configures construction of a KernelLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	RequestID   string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: true, CustomAttrs: map[string]any{}}
}

// NewLogger builds a KernelLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *KernelLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &KernelLogger{logger: slog.New(handler), level: cfg.Level, context: map[string]any{}, component: cfg.Component, requestID: cfg.RequestID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *KernelLogger) clone() *KernelLogger {
	nl := *l
	nl.context = map[string]any{}
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute attached to every log entry.
func (l *KernelLogger) WithContext(key string, value any) *KernelLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (planner, critic, executor, tool).
func (l *KernelLogger) WithComponent(c string) *KernelLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithRequest attaches the request identifier.
func (l *KernelLogger) WithRequest(id string) *KernelLogger {
	nl := l.clone()
	nl.requestID = id
	return nl
}

func (l *KernelLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.requestID != "" {
		attrs = append(attrs, slog.String("request_id", l.requestID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *KernelLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	attrs := l.buildAttrs()
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Debug logs at debug level.
func (l *KernelLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *KernelLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *KernelLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *KernelLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogModelCall records model call latency, token usage and success.
func (l *KernelLogger) LogModelCall(model string, tokens int, dur time.Duration, err error) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.String("model", model), slog.Int("token_count", tokens), slog.Duration("duration", dur), slog.Bool("success", err == nil))
	level := slog.LevelInfo
	msg := "Model call completed"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelError
		msg = "Model call failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogToolCall records execution details for a tool invocation.
func (l *KernelLogger) LogToolCall(tool string, dur time.Duration, err error) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.String("tool_name", tool), slog.Duration("duration", dur), slog.Bool("success", err == nil))
	level := slog.LevelInfo
	msg := "Tool execution completed"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelError
		msg = "Tool execution failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogStepExecution records the outcome of one plan step.
func (l *KernelLogger) LogStepExecution(stepID, status string, dur time.Duration) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.String("step_id", stepID), slog.String("status", status), slog.Duration("duration", dur))
	level := slog.LevelInfo
	msg := "Step execution completed"
	if status == "error" {
		level = slog.LevelWarn
		msg = "Step execution failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogCritique records one self-correction iteration.
func (l *KernelLogger) LogCritique(iteration int, score float64, improved bool) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.Int("iteration", iteration), slog.Float64("overall_score", score), slog.Bool("plan_replaced", improved))
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, "Plan critique completed", attrs...)
}

// LogPlanLifecycle records a plan lifecycle transition.
func (l *KernelLogger) LogPlanLifecycle(state string, stepCount int) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.String("state", state), slog.Int("step_count", stepCount))
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, "Plan lifecycle transition", attrs...)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *KernelLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("Operation completed", "operation", op, "duration", time.Since(start)) }
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
