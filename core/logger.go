package core

// Logger is implemented by the logging services.
// args may carry errors, map[string]interface{} extras and the acting Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the logged in user attached to a log entry.
type Person struct {
	ID    string
	Login string
	Email string
}
