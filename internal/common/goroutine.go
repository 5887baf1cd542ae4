package common

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

var activeGoroutines atomic.Int64

// ActiveGoroutines counts SafeGo goroutines that have not returned yet
func ActiveGoroutines() int64 {
	return activeGoroutines.Load()
}

// SafeGo runs fn on its own goroutine. A panic in fn is logged with its
// stack and does not take the process down.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	activeGoroutines.Add(1)
	go func() {
		defer activeGoroutines.Add(-1)
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if logger == nil {
				fmt.Fprintf(os.Stderr, "panic in %s: %v\n%s\n", name, r, GetStackTrace())
				return
			}
			logger.Error().
				Str("goroutine", name).
				Str("panic", fmt.Sprint(r)).
				Str("stack", GetStackTrace()).
				Msg("Recovered from panic")
		}()
		fn()
	}()
}

// GetStackTrace returns up to 8KB of the calling goroutine's stack
func GetStackTrace() string {
	buf := make([]byte, 8<<10)
	return string(buf[:runtime.Stack(buf, false)])
}
