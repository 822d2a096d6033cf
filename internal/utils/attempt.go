package utils

import (
	"fmt"

	"tourbook/internal/logger"
)

// Outcome records the result of a best-effort side effect. Callers may
// inspect it but are not required to.
type Outcome struct {
	Action string
	Err    error
}

func (o Outcome) OK() bool { return o.Err == nil }

// Attempt runs fn, logs a failure as a warning, and never propagates it.
func Attempt(log *logger.Logger, category, action string, fn func() error) (out Outcome) {
	out.Action = action
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic: %v", r)
			log.Warn(category, fmt.Sprintf("%s failed: %v", action, out.Err))
		}
	}()

	if err := fn(); err != nil {
		out.Err = err
		log.Warn(category, fmt.Sprintf("%s failed (continuing): %v", action, err))
		return out
	}
	log.Debug(category, fmt.Sprintf("%s done", action))
	return out
}
