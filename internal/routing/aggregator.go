// Package routing fans quote requests out to every configured venue and
// picks the best-priced one.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"order-engine/internal/venue"
)

// Aggregator requests quotes from all venues concurrently and selects the
// winner by net output amount. The venue order is significant: the
// first-listed venue wins exact ties.
type Aggregator struct {
	provider venue.Provider
	venues   []venue.Venue
	log      *zap.Logger
}

func NewAggregator(provider venue.Provider, venues []venue.Venue, logger *zap.Logger) (*Aggregator, error) {
	if len(venues) == 0 {
		return nil, errors.New("aggregator: no venues configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{provider: provider, venues: venues, log: logger}, nil
}

// BestQuote gathers one quote per venue and returns the winning quote along
// with every quote received. All requests are joined before selection; a
// single venue failure fails the whole aggregation.
func (a *Aggregator) BestQuote(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal) (venue.Quote, []venue.Quote, error) {
	quotes := make([]venue.Quote, len(a.venues))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range a.venues {
		i, v := i, v
		g.Go(func() error {
			q, err := a.provider.Quote(gctx, v, tokenIn, tokenOut, amount)
			if err != nil {
				return fmt.Errorf("quote from %s: %w", v, err)
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return venue.Quote{}, nil, err
	}

	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.OutputAmount.GreaterThan(best.OutputAmount) {
			best = q
		}
	}

	a.log.Info("routing decision",
		zap.String("pair", tokenIn+"/"+tokenOut),
		zap.String("amount", amount.String()),
		zap.String("selected", string(best.Venue)),
		zap.String("output", best.OutputAmount.String()))
	return best, quotes, nil
}
