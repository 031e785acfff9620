package resilience

import "time"

// Config holds the executor-wide circuit breaker settings. Retry behaviour is
// per call and lives in Policy.
type Config struct {
	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}
	return out
}

// RetryFunc is told about every retry before the executor sleeps. attempt is
// the 1-based number of the attempt that just failed.
type RetryFunc func(attempt, retries int, err error)

// Policy describes how one retryable operation is attempted.
type Policy struct {
	// Retries is the total number of attempts, not the number of re-tries.
	Retries        int
	BaseDelay      time.Duration
	MaxJitter      time.Duration
	AttemptTimeout time.Duration
	OnRetry        RetryFunc
	Classifier     ErrorClassifier
}

const (
	DefaultRetries   = 3
	DefaultBaseDelay = 1200 * time.Millisecond
	DefaultMaxJitter = 400 * time.Millisecond
)

func DefaultPolicy() Policy {
	return Policy{
		Retries:   DefaultRetries,
		BaseDelay: DefaultBaseDelay,
		MaxJitter: DefaultMaxJitter,
	}
}

// TextPolicy is used for chat/completion calls.
func TextPolicy() Policy {
	return Policy{
		Retries:   4,
		BaseDelay: 1500 * time.Millisecond,
		MaxJitter: DefaultMaxJitter,
	}
}

// ImagePolicy is used for image edit/generation calls.
func ImagePolicy() Policy {
	return DefaultPolicy()
}

func (p Policy) WithTimeout(timeout time.Duration) Policy {
	p.AttemptTimeout = timeout
	return p
}

func (p Policy) WithOnRetry(fn RetryFunc) Policy {
	p.OnRetry = fn
	return p
}

func (p Policy) normalize() Policy {
	out := p
	if out.Retries <= 0 {
		out.Retries = DefaultRetries
	}
	if out.BaseDelay < 0 {
		out.BaseDelay = 0
	}
	if out.MaxJitter < 0 {
		out.MaxJitter = 0
	}
	if out.Classifier == nil {
		out.Classifier = ClassifyByMessage
	}
	return out
}

// Backoff returns the sleep before the attempt following failedAttempt, without jitter.
func (p Policy) Backoff(failedAttempt int) time.Duration {
	if failedAttempt < 1 {
		failedAttempt = 1
	}
	return p.BaseDelay * time.Duration(1<<(failedAttempt-1))
}

// Budget is the longest Do can take under this policy: every attempt running
// into AttemptTimeout plus the worst-case sleeps between them. Zero means
// unbounded, since attempts without a timeout can hang.
func (p Policy) Budget() time.Duration {
	n := p.normalize()
	if n.AttemptTimeout <= 0 {
		return 0
	}
	total := time.Duration(n.Retries) * n.AttemptTimeout
	for i := 1; i < n.Retries; i++ {
		total += n.Backoff(i) + n.MaxJitter
	}
	return total
}
