package util

import (
	"time"

	"github.com/pkg/errors"
)

// ErrTimeout is returned by Timeout when fn does not finish in time
var ErrTimeout = errors.New("Timeout")

// Timeout is a utility method used to timeout function calls after the specified interval
func Timeout(fn func() error, duration time.Duration) error {
	ch := make(chan error, 1)
	go func() {
		ch <- fn()
	}()
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case err := <-ch:
		return err
	case <-timer.C:
		return ErrTimeout
	}
}
