package contracts

import "time"

// LogLevel represents the severity level for logging. Values line up with zapcore levels.
type LogLevel int8

const (
	// DebugLevel is for per-tick and per-message detail.
	DebugLevel LogLevel = iota - 1
	// InfoLevel highlights the progress of the application (device selection, evictions, tuning changes).
	InfoLevel
	// WarnLevel indicates dropped or malformed input that the instrument recovered from.
	WarnLevel
	// ErrorLevel indicates failures such as an outbound message that could not be transmitted.
	ErrorLevel
	// FatalLevel indicates very severe error events that will presumably lead the application to abort.
	FatalLevel LogLevel = 5
)

// LogDestination specifies where the log messages should be directed.
type LogDestination string

const (
	// ConsoleLog directs log messages to stderr.
	ConsoleLog LogDestination = "console"
	// FileLog directs log messages to a file.
	FileLog LogDestination = "file"
)

// Field is a typed log field. Each builder method returns a new Field.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Time(key string, val time.Time) Field
	Int64(key string, val int64) Field
	Error(key string, val error) Field
	Uint64(key string, val uint64) Field
	Uint8(key string, val uint8) Field
	Duration(key string, val time.Duration) Field
}

// Logger provides leveled, structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Field() Field

	SetLevel(level LogLevel)
	SetDestination(dest LogDestination, filePath ...string) error
}
