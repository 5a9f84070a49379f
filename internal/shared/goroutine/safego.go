// Package goroutine provides utilities for safely launching goroutines with panic recovery.
package goroutine

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine and logs, instead of propagating, any panic.
// The returned channel is closed once fn has returned.
func SafeGo(ctx context.Context, log logger.Interface, name string, fn func(ctx context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn(ctx)
	}()
	return done
}
