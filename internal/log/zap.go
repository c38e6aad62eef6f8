package log

import (
	"log/slog"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/sink"
)

// NewZapLogger creates a zap logger whose entries are encoded as bunyan
// shaped JSON and written through s, so they are sanitized like any other
// record. verbose and WithLevel select the level as in NewLogger.
func NewZapLogger(s *sink.Sink, verbose bool, opts ...Option) *zap.Logger {
	cfg := newSettings(verbose, opts)

	encoderConfig := zapcore.EncoderConfig{
		LevelKey:       record.KeyLevel,
		TimeKey:        record.KeyTime,
		NameKey:        record.KeyName,
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     record.KeyMsg,
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeRecordLevel,
		EncodeTime:     encodeRecordTime,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(s),
		zapLevel(cfg.level.Level()),
	)
	return zap.New(core).
		Named(cfg.name).
		With(
			zap.String(record.KeyHostname, cfg.hostname),
			zap.Int(record.KeyPID, cfg.pid),
			zap.Int(record.KeyVersion, recordVersion),
		)
}

// zapLevel maps an slog level onto the closest zap level.
func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l < slog.LevelInfo:
		return zapcore.DebugLevel
	case l < slog.LevelWarn:
		return zapcore.InfoLevel
	case l < slog.LevelError:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func encodeRecordLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case zapcore.DebugLevel:
		enc.AppendInt64(record.LevelDebug)
	case zapcore.InfoLevel:
		enc.AppendInt64(record.LevelInfo)
	case zapcore.WarnLevel:
		enc.AppendInt64(record.LevelWarn)
	case zapcore.ErrorLevel:
		enc.AppendInt64(record.LevelError)
	default:
		if l < zapcore.DebugLevel {
			enc.AppendInt64(record.LevelTrace)
			return
		}
		enc.AppendInt64(record.LevelFatal)
	}
}

func encodeRecordTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(record.TimestampLayout))
}
