package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

func breakerService() *GeminiService {
	return &GeminiService{
		MaxRetries:        3,
		BaseDelay:         time.Millisecond,
		MaxDelay:          10 * time.Millisecond,
		RequestTimeout:    time.Second,
		circuitBreakerMax: 5,
		logger:            zap.NewNop(),
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	s := breakerService()
	for i := 0; i < 5; i++ {
		if _, open := s.GetCircuitBreakerStatus(); open {
			t.Fatalf("breaker open after %d errors", i)
		}
		s.consecutiveErrors.Add(1)
	}
	n, open := s.GetCircuitBreakerStatus()
	if !open || n != 5 {
		t.Fatalf("expected open breaker at 5 errors, got n=%d open=%v", n, open)
	}

	s.ResetCircuitBreaker()
	if n, open := s.GetCircuitBreakerStatus(); open || n != 0 {
		t.Fatalf("reset did not close the breaker: n=%d open=%v", n, open)
	}
}

// Handlers share one service, so counter updates and status reads race
// unless the counter is atomic.
func TestCircuitBreakerConcurrentAccess(t *testing.T) {
	s := breakerService()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.consecutiveErrors.Add(1)
				s.GetCircuitBreakerStatus()
				s.ResetCircuitBreaker()
			}
		}()
	}
	wg.Wait()
	if n, _ := s.GetCircuitBreakerStatus(); n < 0 {
		t.Fatalf("counter corrupted: %d", n)
	}
}

func TestIsRetryableErrorClassification(t *testing.T) {
	s := breakerService()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"rate limited", genai.APIError{Code: 429, Message: "quota"}, true},
		{"server error", genai.APIError{Code: 503, Message: "unavailable"}, true},
		{"bad request", genai.APIError{Code: 400, Message: "invalid"}, false},
		{"unauthorized", genai.APIError{Code: 401, Message: "key"}, false},
		{"wrapped api error", fmt.Errorf("call failed: %w", genai.APIError{Code: 500}), true},
		{"plain error", errors.New("transient-looking message with 503 in it"), false},
	}
	for _, tc := range cases {
		if got := s.isRetryableError(tc.err); got != tc.want {
			t.Errorf("%s: retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCalculateBackoffBounded(t *testing.T) {
	s := breakerService()
	for attempt := 1; attempt <= 10; attempt++ {
		d := s.calculateBackoff(attempt)
		if d <= 0 {
			t.Fatalf("attempt %d: non-positive delay %v", attempt, d)
		}
		// jitter widens the ceiling by at most a quarter of MaxDelay
		if d > s.MaxDelay+s.MaxDelay/4 {
			t.Fatalf("attempt %d: delay %v exceeds cap", attempt, d)
		}
	}
}
