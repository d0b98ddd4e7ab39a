package logging

import (
	"go.uber.org/zap"
)

// New builds the application logger. Development mode gets the console
// encoder with colors; production gets JSON.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Must is New but panics on error; for use in main.
func Must(env string) *zap.Logger {
	l, err := New(env)
	if err != nil {
		panic(err)
	}
	return l
}
