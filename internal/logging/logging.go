package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where logs go. Logs always reach stderr; a non-empty
// Filename also writes them to a file rotated by lumberjack.
type Config struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Filename   string `toml:"filename"`
	MaxSize    int    `toml:"max_size"`
	MaxDays    int    `toml:"max_days"`
	MaxBackups int    `toml:"max_backups"`
	Compress   bool   `toml:"compress"`
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		MaxSize:    100,
		MaxDays:    28,
		MaxBackups: 3,
	}
}

func (cfg Config) Validate() error {
	if _, err := cfg.level(); err != nil {
		return err
	}
	_, err := cfg.encoder()
	return err
}

func New(cfg Config) (*zap.Logger, error) {
	level, err := cfg.level()
	if err != nil {
		return nil, err
	}
	encoder, err := cfg.encoder()
	if err != nil {
		return nil, err
	}

	enabler := zap.NewAtomicLevelAt(level)
	cores := make([]zapcore.Core, 0, 2)
	for _, ws := range cfg.syncers() {
		cores = append(cores, zapcore.NewCore(encoder, ws, enabler))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func (cfg Config) level() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	return level, nil
}

func (cfg Config) encoder() (zapcore.Encoder, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	switch cfg.Format {
	case "", "console":
		return zapcore.NewConsoleEncoder(encCfg), nil
	case "json":
		return zapcore.NewJSONEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

func (cfg Config) syncers() []zapcore.WriteSyncer {
	out := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	if cfg.Filename == "" {
		return out
	}
	return append(out, zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}))
}
