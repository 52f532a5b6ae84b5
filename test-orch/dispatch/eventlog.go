package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EventLogConfig configures the rotating JSONL event log.
type EventLogConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// EventLog writes dispatch lifecycle events in a canonical JSONL envelope.
// Fields: ts, level, component, run_id, stage, event, message, mode, argv, rc, duration_ms
type EventLog struct {
	log    *zap.Logger
	closer func() error
}

// OpenEventLog opens (or creates) the log file at cfg.Path behind a rotator.
func OpenEventLog(cfg EventLogConfig, runID string) (*EventLog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("event log: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("event log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	l := NewEventLog(zapcore.AddSync(rotator), runID)
	l.closer = rotator.Close
	return l, nil
}

// NewEventLog writes events to ws.
func NewEventLog(ws zapcore.WriteSyncer, runID string) *EventLog {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.CallerKey = zapcore.OmitKey
	enc.StacktraceKey = zapcore.OmitKey
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), ws, zapcore.DebugLevel)
	logger := zap.New(core).With(
		zap.String("component", "host"),
		zap.String("run_id", runID),
	)
	return &EventLog{log: logger}
}

func (l *EventLog) Command(cmd Command) {
	l.log.Info(cmd.String(),
		zap.String("stage", "launch"),
		zap.String("event", "command"),
		zap.String("mode", cmd.Mode().String()),
		zap.Strings("argv", cmd.Argv()),
	)
}

func (l *EventLog) Exit(cmd Command, code int, elapsed time.Duration, err error) {
	event := "exit"
	if err != nil {
		event = "launch_failed"
	}
	fields := []zap.Field{
		zap.String("stage", "wait"),
		zap.String("event", event),
		zap.String("mode", cmd.Mode().String()),
		zap.Int("rc", code),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if err != nil {
		l.log.Error(err.Error(), fields...)
		return
	}
	l.log.Info(fmt.Sprintf("%s exited with code %d", cmd.Name(), code), fields...)
}

// Close flushes buffered events and releases the underlying file.
func (l *EventLog) Close() error {
	_ = l.log.Sync()
	if l.closer != nil {
		return l.closer()
	}
	return nil
}
