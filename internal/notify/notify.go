// Package notify is the user-feedback collaborator. Services report
// operation outcomes through it and never treat a notification failure
// as fatal.
package notify

import (
	"log"
	"sync"
)

// Notifier receives user-facing outcome messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Logger writes notifications through an injected logger.
type Logger struct {
	logger *log.Logger
}

func NewLogger(logger *log.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Success(message string) {
	l.logger.Printf("ok: %s", message)
}

func (l *Logger) Error(message string) {
	l.logger.Printf("error: %s", message)
}

// Recorder collects notifications for assertions in tests.
type Recorder struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	r.Successes = append(r.Successes, message)
	r.mu.Unlock()
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	r.Errors = append(r.Errors, message)
	r.mu.Unlock()
}
