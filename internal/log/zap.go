package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Logger is a no-op until Init runs, so library code can log
// unconditionally.
var Logger = zap.NewNop()

// Init builds the logger from the CLI values. Format is "json", "text" or
// "auto"; auto picks text when stderr is a terminal.
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if nil != err {
		return err
	}

	cfg := zap.NewProductionConfig()
	if format == "text" || (format == "auto" && term.IsTerminal(int(os.Stderr.Fd()))) {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if nil != err {
		return err
	}
	Logger = l
	return nil
}
