package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// RetryPolicy límites del reintento ante conflictos de versión en el store.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy valores usados cuando la configuración no define otros.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      8,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = 0
	eb.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)
}

// retry ejecuta attempt hasta que no devuelva ErrVersionConflict. Cualquier otro error corta
// de inmediato. Agotados los reintentos devuelve ErrContention.
func (uc *LedgerUseCase) retry(ctx context.Context, op string, attempt func() error) error {
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := attempt()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			uc.recorder.ObserveRetry(op)
			return err
		}
		return backoff.Permanent(err)
	}, uc.policy.backOff(ctx))

	if errors.Is(err, domain.ErrVersionConflict) {
		uc.log.Warn().Str("op", op).Int("attempts", attempts).Msg("reintentos agotados por contención")
		return fmt.Errorf("%w: %s tras %d intentos", domain.ErrContention, op, attempts)
	}
	return err
}
