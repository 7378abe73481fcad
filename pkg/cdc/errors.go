package cdc

import (
	"errors"
	"strings"
)

var (
	ErrPublisherClosed  = errors.New("change feed publisher is closed")
	ErrSubscriberClosed = errors.New("change feed subscriber is closed")
	ErrEmptyRowID       = errors.New("change event row id cannot be empty")
	ErrUnknownTable     = errors.New("change event table is not part of the feed")
)

var transientPatterns = []string{
	"connection refused",
	"timeout",
	"deadline exceeded",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"connection reset",
	"i/o timeout",
	"temporary failure",
}

// IsTransient reports whether an error looks like a recoverable broker or
// network failure worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// ShouldRetry bounds retries of transient failures.
func ShouldRetry(err error, currentRetries, maxRetries int) bool {
	if err == nil || currentRetries >= maxRetries {
		return false
	}
	return IsTransient(err)
}
