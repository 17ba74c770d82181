package utils

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// SupportedLogLevels lists accepted log level names in increasing severity.
var SupportedLogLevels = []string{logLevelDebugStringConstant, logLevelInfoStringConstant, logLevelWarnStringConstant, logLevelErrorStringConstant}

// SupportedLogFormats lists accepted log format names.
var SupportedLogFormats = []string{logFormatStructuredStringConstant, logFormatConsoleStringConstant}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerConfiguration describes where and how diagnostics are written.
type LoggerConfiguration struct {
	Level  LogLevel
	Format LogFormat
	// Output receives diagnostics; standard error when nil.
	Output io.Writer
	// FilePath additionally writes structured diagnostics to a rotating file when set.
	FilePath         string
	MaxSizeMegabytes int
	MaxBackups       int
	MaxAgeDays       int
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger writing to standard error.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	return factory.Build(LoggerConfiguration{Level: requestedLogLevel, Format: requestedLogFormat})
}

// Build produces a zap.Logger honoring the full configuration.
func (factory *LoggerFactory) Build(configuration LoggerConfiguration) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[configuration.Level]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, configuration.Level)
	}

	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch configuration.Format {
	case LogFormatStructured:
		encoder = zapcore.NewJSONEncoder(encoderConfiguration)
	case LogFormatConsole:
		consoleEncoderConfiguration := encoderConfiguration
		consoleEncoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(consoleEncoderConfiguration)
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, configuration.Format)
	}

	output := configuration.Output
	if output == nil {
		output = os.Stderr
	}
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(output)), zapLogLevel)}

	if len(configuration.FilePath) > 0 {
		rotatingFile := &lumberjack.Logger{
			Filename:   configuration.FilePath,
			MaxSize:    configuration.MaxSizeMegabytes,
			MaxBackups: configuration.MaxBackups,
			MaxAge:     configuration.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfiguration), zapcore.AddSync(rotatingFile), zapLogLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
