package logger

import (
	"bufio"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap logger and the log file it writes to
type Logger struct {
	*zap.Logger
	file   *os.File
	writer *bufio.Writer
}

// Close properly flushes and closes the log file
func (l *Logger) Close() error {
	if err := l.Flush(); err != nil {
		return err
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Flush() error {
	_ = l.Logger.Sync()
	if l.writer != nil {
		return l.writer.Flush()
	}
	return nil
}

// NewLogger writes to stdout and, when filename is not empty, to that file as well.
// verbose lowers the level to debug, which includes every failed operation.
func NewLogger(filename string, verbose bool) (*Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}

	var logFile *os.File
	var bufferedWriter *bufio.Writer
	if filename != "" {
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			return nil, err
		}
		logFile = f
		bufferedWriter = bufio.NewWriter(logFile)
		sinks = append(sinks, zapcore.Lock(zapcore.AddSync(bufferedWriter)))
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.NewMultiWriteSyncer(sinks...),
		level,
	)

	return &Logger{Logger: zap.New(core, zap.AddCaller()), file: logFile, writer: bufferedWriter}, nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}
