package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryConfig.
func FromRetryConfig(maxAttempts, initialBackoffMs, maxBackoffMs int, multiplier, jitterFraction float64) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	if multiplier > 0 {
		cfg.Multiplier = multiplier
	}
	if jitterFraction >= 0 {
		cfg.JitterFraction = jitterFraction
	}
	return cfg
}

// FromPageConfig converts the whole-page retry settings to a fixed-interval
// RetryConfig. Non-positive values fall back to 6 attempts, 2 minutes apart.
func FromPageConfig(maxAttempts, waitSecs int) RetryConfig {
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	wait := 2 * time.Minute
	if waitSecs > 0 {
		wait = time.Duration(waitSecs) * time.Second
	}
	return FixedInterval(maxAttempts, wait)
}
