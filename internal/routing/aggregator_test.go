package routing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"order-engine/internal/venue"
)

// stubProvider returns canned quotes keyed by venue.
type stubProvider struct {
	quotes map[venue.Venue]venue.Quote
	errs   map[venue.Venue]error
}

func (s *stubProvider) Quote(_ context.Context, v venue.Venue, _, _ string, _ decimal.Decimal) (venue.Quote, error) {
	if err, ok := s.errs[v]; ok {
		return venue.Quote{}, err
	}
	return s.quotes[v], nil
}

func (s *stubProvider) ExecuteSwap(context.Context, venue.Venue, decimal.Decimal, venue.Quote) (venue.SwapResult, error) {
	return venue.SwapResult{}, errors.New("not implemented")
}

func quoteWithOutput(v venue.Venue, output float64) venue.Quote {
	return venue.Quote{Venue: v, OutputAmount: decimal.NewFromFloat(output)}
}

func TestBestQuoteSelection(t *testing.T) {
	tests := []struct {
		name    string
		raydium float64
		meteora float64
		want    venue.Venue
	}{
		{name: "raydium better", raydium: 995, meteora: 990, want: venue.Raydium},
		{name: "meteora better", raydium: 990, meteora: 995, want: venue.Meteora},
		{name: "tie goes to primary", raydium: 990, meteora: 990, want: venue.Raydium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{quotes: map[venue.Venue]venue.Quote{
				venue.Raydium: quoteWithOutput(venue.Raydium, tt.raydium),
				venue.Meteora: quoteWithOutput(venue.Meteora, tt.meteora),
			}}
			agg, err := NewAggregator(provider, []venue.Venue{venue.Raydium, venue.Meteora}, nil)
			if err != nil {
				t.Fatalf("NewAggregator returned error: %v", err)
			}

			best, all, err := agg.BestQuote(context.Background(), "SOL", "USDC", decimal.NewFromInt(10))
			if err != nil {
				t.Fatalf("BestQuote returned error: %v", err)
			}
			if best.Venue != tt.want {
				t.Fatalf("selected %s, expected %s", best.Venue, tt.want)
			}
			if len(all) != 2 {
				t.Fatalf("got %d quotes, expected 2", len(all))
			}
			// Quotes keep venue-list order regardless of the winner.
			if all[0].Venue != venue.Raydium || all[1].Venue != venue.Meteora {
				t.Fatalf("quote order changed: %s, %s", all[0].Venue, all[1].Venue)
			}
		})
	}
}

func TestBestQuoteVenueFailure(t *testing.T) {
	provider := &stubProvider{
		quotes: map[venue.Venue]venue.Quote{
			venue.Raydium: quoteWithOutput(venue.Raydium, 995),
		},
		errs: map[venue.Venue]error{
			venue.Meteora: errors.New("connection refused"),
		},
	}
	agg, err := NewAggregator(provider, []venue.Venue{venue.Raydium, venue.Meteora}, nil)
	if err != nil {
		t.Fatalf("NewAggregator returned error: %v", err)
	}

	_, _, err = agg.BestQuote(context.Background(), "SOL", "USDC", decimal.NewFromInt(10))
	if err == nil {
		t.Fatal("expected aggregation to fail when one venue fails")
	}
	if !strings.Contains(err.Error(), "METEORA") {
		t.Fatalf("error %q does not name the failing venue", err)
	}
}

func TestNewAggregatorRequiresVenues(t *testing.T) {
	if _, err := NewAggregator(&stubProvider{}, nil, nil); err == nil {
		t.Fatal("expected error for empty venue list")
	}
}
