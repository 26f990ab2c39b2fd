// Package logging builds the structured logger every component shares:
// a severity gate plus a pluggable sink, selected by config.LoggerConfig
// (§4.7's `logger.*` keys), generalizing basic_logger/file_logger's
// split between severity filtering and the destination stream.
package logging

import (
	"os"

	"github.com/pingcap/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gongzhxu/binsrv/config"
)

// levelFor maps §4.7's logger.level enum onto a zapcore.Level. "trace"
// has no zap equivalent and folds into Debug; New marks such loggers
// with a trace=true field.
func levelFor(level config.LogLevel) (zapcore.Level, error) {
	switch level {
	case config.LogLevelTrace, config.LogLevelDebug:
		return zapcore.DebugLevel, nil
	case config.LogLevelInfo, "":
		return zapcore.InfoLevel, nil
	case config.LogLevelWarning:
		return zapcore.WarnLevel, nil
	case config.LogLevelError:
		return zapcore.ErrorLevel, nil
	case config.LogLevelFatal:
		return zapcore.FatalLevel, nil
	case config.LogLevelDelimiter:
		return 0, errors.Errorf("logging: %q is a sentinel value, not a usable level", level)
	default:
		return 0, errors.Errorf("logging: unknown logger.level %q", level)
	}
}

// New builds a zap.Logger per cfg: console output when cfg.File is
// empty, a rotating file sink (lumberjack) otherwise.
func New(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := levelFor(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var sink zapcore.WriteSyncer
	if cfg.File == "" {
		sink = zapcore.AddSync(os.Stderr)
	} else {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}

	core := zapcore.NewCore(encoder, sink, level)

	fields := []zap.Field{}
	if cfg.Level == config.LogLevelTrace {
		fields = append(fields, zap.Bool("trace", true))
	}
	return zap.New(core).With(fields...), nil
}
