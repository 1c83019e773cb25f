package order

import (
	"errors"
	"testing"
	"time"
)

func TestRetryDelayDoublesPerAttempt(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Fatalf("Delay(%d)=%v, expected %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryExhausted(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}

	if p.Exhausted(2) {
		t.Fatal("attempt 2 of 3 should not be exhausted")
	}
	if !p.Exhausted(3) {
		t.Fatal("attempt 3 of 3 should be exhausted")
	}
}

func TestKindOfClassifiesErrors(t *testing.T) {
	base := errors.New("boom")

	if got := KindOf(quoteFailure(base)); got != FailureQuote {
		t.Fatalf("KindOf=%v, expected FailureQuote", got)
	}
	if got := KindOf(swapFailure(base)); got != FailureSwap {
		t.Fatalf("KindOf=%v, expected FailureSwap", got)
	}
	if got := KindOf(base); got != FailureInternal {
		t.Fatalf("KindOf=%v, expected FailureInternal for plain errors", got)
	}

	// The wrapped cause stays reachable through the chain.
	if !errors.Is(quoteFailure(base), base) {
		t.Fatal("expected the cause to be found via errors.Is")
	}
}
