package observability

import "runtime/debug"

// RecoverPanic logs a recovered panic with its stack and swallows it. Use in
// a defer around background work, like the invitation cleanup job, where one
// failed run must not take the process down. HTTP handlers are covered by
// middleware.Recovery instead.
func RecoverPanic(logger *Logger, operation string) {
	if r := recover(); r != nil {
		logger.WithFields(map[string]interface{}{
			"panic":     r,
			"stack":     string(debug.Stack()),
			"operation": operation,
		}).Error("panic recovered")
	}
}
