package apiclient

import (
	"github.com/cenkalti/backoff/v5"
)

// newBackOff builds the exponential backoff used between transient retries.
// A fresh instance is created per call so attempts within one call grow
// geometrically while separate calls start from InitialInterval again.
func newBackOff(cfg RetryConfig) backoff.BackOff {
	cfg = cfg.normalized()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = cfg.JitterFactor
	b.Reset()
	return b
}
