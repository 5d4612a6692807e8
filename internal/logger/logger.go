package logger

import (
	"collegeportal/internal/config"
	"collegeportal/internal/reqctx"
	"context"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Dir — куда пишутся JSON-логи (читает админский просмотр логов).
const Dir = "logs"

// TimeLayout — формат поля time в JSON-логах (ISO8601TimeEncoder).
const TimeLayout = "2006-01-02T15:04:05.000Z0700"

// Log — логгер приложения. До InitLogger это no-op, чтобы пакеты и тесты не падали.
var Log = zap.NewNop()

func InitLogger(cfg *config.Config) {
	logLevel := parseLevel(cfg.LogLevel)

	if cfg.Log == "dev" {
		devCfg := zap.NewDevelopmentConfig()
		devCfg.Level = zap.NewAtomicLevelAt(logLevel)
		logger, _ := devCfg.Build()
		Log = logger
		return
	}

	logDir := Dir
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		panic("не удалось создать папку для логов: " + err.Error())
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:      "time",
		LevelKey:     "level",
		MessageKey:   "message",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "app.log"),
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	})

	console := zapcore.Lock(os.Stdout)

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, logLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), console, logLevel),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// WithCtx — логгер с полями запроса (request_id, user_id, role), если они есть в контексте.
func WithCtx(ctx context.Context) *zap.Logger {
	var fields []zap.Field
	if rid, ok := reqctx.GetRequestID(ctx); ok {
		fields = append(fields, zap.String("request_id", rid))
	}
	if id, ok := reqctx.GetIdentity(ctx); ok {
		fields = append(fields, zap.String("user_id", id.SubjectID), zap.String("role", string(id.Role)))
	}
	if len(fields) == 0 {
		return Log
	}
	return Log.With(fields...)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
