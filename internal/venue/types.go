// Package venue defines the execution-venue contract and the simulated
// Raydium/Meteora clients used in place of real DEX integrations.
package venue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Venue identifies an execution destination.
type Venue string

const (
	Raydium Venue = "RAYDIUM"
	Meteora Venue = "METEORA"
)

// Quote is one venue's ephemeral answer to a price request.
type Quote struct {
	Venue        Venue
	Price        decimal.Decimal
	Fee          decimal.Decimal // fraction, e.g. 0.003
	OutputAmount decimal.Decimal // amount * price * (1 - fee)
	ResponseTime time.Duration
}

// SwapResult is the outcome of a successful swap submission.
type SwapResult struct {
	Venue         Venue
	TxHash        string
	ExecutedPrice decimal.Decimal
	Latency       time.Duration
}

// Provider quotes prices and settles swaps against venues. Implementations
// must be safe for concurrent use; the pipeline fans quote requests out in
// parallel.
type Provider interface {
	Quote(ctx context.Context, v Venue, tokenIn, tokenOut string, amount decimal.Decimal) (Quote, error)
	ExecuteSwap(ctx context.Context, v Venue, amount decimal.Decimal, quote Quote) (SwapResult, error)
}
