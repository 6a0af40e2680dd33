package cli

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// newLogger returns a logger writing to errOut at warn level, or debug when
// verbose. A terminal gets console output, anything else JSON lines.
func newLogger(errOut io.Writer, verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	encoder := zapcore.NewJSONEncoder(config.EncoderConfig)

	if f, ok := errOut.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(errOut), config.Level)

	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(errOut)))
}
