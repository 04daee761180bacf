package utils

import (
	"runtime/debug"
)

// LogPanic logs a recovered panic value together with the current stack
func LogPanic(logger *Logger, where string, recovered any) {
	logger.logger.Error().
		Str("where", where).
		Interface("panic", recovered).
		Str("stack", string(debug.Stack())).
		Msg("panic recovered")
}

// RecoverFromPanic recovers from panics and logs them. Use it deferred.
func RecoverFromPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		LogPanic(logger, where, r)
	}
}

// SafeGo runs a goroutine with panic recovery
func SafeGo(logger *Logger, where string, fn func()) {
	go func() {
		defer RecoverFromPanic(logger, where)
		fn()
	}()
}
