package ble

import (
	"context"

	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// retry runs fn up to maxRetryAttempts times, stopping early when ctx is done
func retry(ctx context.Context, log zerolog.Logger, method string, fn func() error) error {
	err := errors.New("not error")
	attempts := 0
	for err != nil && attempts < maxRetryAttempts {
		if attempts > 0 {
			log.Debug().Err(err).Int("attempt", attempts).Str("method", method).Msg("retrying")
		}
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), method+" issue")
		}
		attempts++
		err = util.CatchErrs(fn)
	}
	if err != nil {
		return errors.Wrap(err, method+" exceeded attempts")
	}
	return nil
}
