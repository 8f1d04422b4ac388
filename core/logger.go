package core

// Logger is any service that can report messages and errors.
// args may contain errors, map[string]interface{} extras or a Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies whoever triggered a logged event.
type Person struct {
	ID       string
	Username string
	Email    string
}
