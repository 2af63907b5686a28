package logger

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// New builds the process logger. It is meant to be called once in main and
// the handle passed to every component that logs.
func New(level string) *Logger {
	return newZapLogger(level)
}

// NewNop returns a logger that discards everything; for tests.
func NewNop() *Logger {
	return newNopLogger()
}

// Named returns a child logger tagged with the component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name)}
}
