package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface used across mechctl commands.
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	Title(msg string)
	Section(msg string)
	Sugar() *zap.SugaredLogger
}

type zapLogger struct {
	*zap.Logger
	writer io.Writer
}

// Options configures the logger.
type Options struct {
	Verbose bool
	Writer  io.Writer
}

// New creates a console logger writing to stderr.
func New(verbose bool) Logger {
	return NewWithOptions(Options{Verbose: verbose, Writer: os.Stderr})
}

// NewWithWriter creates a console logger with a custom writer.
func NewWithWriter(verbose bool, w io.Writer) Logger {
	return NewWithOptions(Options{Verbose: verbose, Writer: w})
}

// NewWithOptions creates a logger with full configuration options.
func NewWithOptions(opts Options) Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    coloredLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(opts.Writer),
		level,
	)

	return &zapLogger{
		Logger: zap.New(core),
		writer: opts.Writer,
	}
}

// Title prints a prominent banner, used at the start of a command.
func (l *zapLogger) Title(msg string) {
	fmt.Fprintln(l.writer)
	color.New(color.FgCyan, color.Bold).Fprintln(l.writer, msg)
	fmt.Fprintln(l.writer)
}

// Section prints a dimmer heading between deployment stages.
func (l *zapLogger) Section(msg string) {
	fmt.Fprintln(l.writer)
	color.New(color.FgWhite, color.Bold).Fprintln(l.writer, msg)
}

func coloredLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var levelColor *color.Color
	var levelText string

	switch l {
	case zapcore.DebugLevel:
		levelColor = color.New(color.FgWhite)
		levelText = "DEBUG"
	case zapcore.InfoLevel:
		levelColor = color.New(color.FgBlue)
		levelText = "INFO"
	case zapcore.WarnLevel:
		levelColor = color.New(color.FgYellow)
		levelText = "WARN"
	case zapcore.ErrorLevel:
		levelColor = color.New(color.FgRed)
		levelText = "ERROR"
	case zapcore.FatalLevel:
		levelColor = color.New(color.FgRed, color.Bold)
		levelText = "FATAL"
	default:
		levelColor = color.New(color.FgWhite)
		levelText = l.String()
	}

	enc.AppendString(levelColor.Sprint(levelText))
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(color.New(color.FgWhite).Sprintf("[%s]", t.Format("15:04:05")))
}

var globalLogger Logger

// InitGlobal initializes the process-wide logger.
func InitGlobal(verbose bool) {
	globalLogger = New(verbose)
}

// Get returns the process-wide logger, initializing a default one if needed.
func Get() Logger {
	if globalLogger == nil {
		globalLogger = New(false)
	}
	return globalLogger
}
