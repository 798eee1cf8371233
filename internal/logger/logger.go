package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.Logger

// Init は環境に応じてグローバルロガーを初期化する。
func Init(env string) error {
	var cfg zap.Config

	if env == "prod" || env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	global = l
	zap.ReplaceGlobals(l)
	return nil
}

func L() *zap.Logger {
	if global == nil {
		global, _ = zap.NewDevelopment()
	}
	return global
}

// Sync はバッファ済みログを書き出す。シャットダウン時に呼ぶ。
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}
