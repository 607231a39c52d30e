package txflow

import "time"

const (
	DefaultMaxRetries           = 3
	DefaultRetryBaseDelay       = 2 * time.Second
	DefaultConfirmPollPeriod    = 5 * time.Second
	DefaultConfirmTimeout       = 5 * time.Minute
	DefaultRequestTimeout       = 15 * time.Second
	DefaultGraceDelay           = 3 * time.Second
	DefaultMaxConsecutiveErrors = 3
)

// Config tunes the lifecycle engine. Zero values are replaced with
// defaults in SetDefaults.
type Config struct {
	// MaxRetries bounds how many times a failed transaction may be
	// re-submitted before retry is refused.
	MaxRetries int
	// RetryBaseDelay is the first retry backoff; subsequent retries
	// double it up to a cap, see RetryBackoff.
	RetryBaseDelay time.Duration
	// ConfirmPollPeriod is how often the monitor polls the chain API
	// for a broadcast transaction.
	ConfirmPollPeriod time.Duration
	// ConfirmTimeout is the ceiling on total confirmation wait time.
	ConfirmTimeout time.Duration
	// RequestTimeout bounds each individual chain API request.
	RequestTimeout time.Duration
	// GraceDelay is how long a confirmed transaction stays current
	// before being archived to history.
	GraceDelay time.Duration
	// MaxConsecutiveErrors is how many back-to-back poll failures
	// (other than not-found) mark the transaction failed.
	MaxConsecutiveErrors int
}

func (c *Config) SetDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.ConfirmPollPeriod == 0 {
		c.ConfirmPollPeriod = DefaultConfirmPollPeriod
	}
	if c.ConfirmTimeout == 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.GraceDelay == 0 {
		c.GraceDelay = DefaultGraceDelay
	}
	if c.MaxConsecutiveErrors == 0 {
		c.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}
}

// RetryBackoff returns the wait before retry attempt retryCount
// (0-based): base doubled per attempt, capped at base*8.
func RetryBackoff(base time.Duration, retryCount int) time.Duration {
	exp := retryCount
	if exp > 3 {
		exp = 3
	}
	return base * (1 << uint(exp))
}
