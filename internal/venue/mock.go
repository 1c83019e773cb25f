package venue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrSwapRejected marks a simulated settlement failure.
var ErrSwapRejected = errors.New("swap rejected by venue")

// MockProvider simulates venue quoting and settlement with randomized
// latency and pricing driven by per-venue profiles.
type MockProvider struct {
	profiles map[Venue]Profile
	log      *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockProvider builds a provider from the given profiles. When profiles is
// empty the built-in defaults are used.
func NewMockProvider(profiles []Profile, logger *zap.Logger) *MockProvider {
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	byVenue := make(map[Venue]Profile, len(profiles))
	for _, p := range profiles {
		byVenue[Venue(p.Venue)] = p
	}
	return &MockProvider{
		profiles: byVenue,
		log:      logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Quote returns a simulated quote after the profile's response latency.
func (m *MockProvider) Quote(ctx context.Context, v Venue, tokenIn, tokenOut string, amount decimal.Decimal) (Quote, error) {
	p, ok := m.profiles[v]
	if !ok {
		return Quote{}, fmt.Errorf("venue %s not configured", v)
	}

	start := time.Now()
	if err := m.sleep(ctx, p.QuoteLatencyMinMs, p.QuoteLatencyMaxMs); err != nil {
		return Quote{}, err
	}

	mult := p.PriceMinMult + m.float64()*(p.PriceMaxMult-p.PriceMinMult)
	price := decimal.NewFromFloat(p.BasePrice * mult).Round(6)
	fee := decimal.NewFromFloat(p.Fee)
	output := amount.Mul(price).Mul(decimal.NewFromInt(1).Sub(fee)).Round(6)

	q := Quote{
		Venue:        v,
		Price:        price,
		Fee:          fee,
		OutputAmount: output,
		ResponseTime: time.Since(start),
	}
	m.log.Debug("venue quote",
		zap.String("venue", string(v)),
		zap.String("pair", tokenIn+"/"+tokenOut),
		zap.String("price", price.String()),
		zap.String("output", output.String()),
		zap.Duration("latency", q.ResponseTime))
	return q, nil
}

// ExecuteSwap settles a swap against the quoted venue. A fraction of calls
// fail to emulate network and settlement errors.
func (m *MockProvider) ExecuteSwap(ctx context.Context, v Venue, amount decimal.Decimal, quote Quote) (SwapResult, error) {
	p, ok := m.profiles[v]
	if !ok {
		return SwapResult{}, fmt.Errorf("venue %s not configured", v)
	}

	start := time.Now()
	if err := m.sleep(ctx, p.SwapLatencyMinMs, p.SwapLatencyMaxMs); err != nil {
		return SwapResult{}, err
	}

	if m.float64() < p.SwapFailureRate {
		m.log.Warn("simulated swap failure", zap.String("venue", string(v)))
		return SwapResult{}, fmt.Errorf("%w: %s network error during settlement", ErrSwapRejected, v)
	}

	// Fill below the quote by up to the profile's slippage bound.
	slip := m.float64() * p.MaxSlippage
	executed := quote.Price.Mul(decimal.NewFromFloat(1 - slip)).Round(6)

	res := SwapResult{
		Venue:         v,
		TxHash:        m.txHash(),
		ExecutedPrice: executed,
		Latency:       time.Since(start),
	}
	m.log.Debug("swap executed",
		zap.String("venue", string(v)),
		zap.String("tx_hash", res.TxHash),
		zap.String("executed_price", executed.String()))
	return res, nil
}

func (m *MockProvider) float64() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func (m *MockProvider) txHash() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, 32)
	m.rng.Read(buf)
	return fmt.Sprintf("%x", buf)
}

// sleep waits a uniform duration in [minMs, maxMs], honoring cancellation.
func (m *MockProvider) sleep(ctx context.Context, minMs, maxMs int) error {
	if maxMs <= 0 {
		return nil
	}
	if minMs < 0 {
		minMs = 0
	}
	if minMs > maxMs {
		minMs, maxMs = maxMs, minMs
	}
	d := time.Duration(minMs) * time.Millisecond
	if span := maxMs - minMs; span > 0 {
		m.mu.Lock()
		d += time.Duration(m.rng.Intn(span+1)) * time.Millisecond
		m.mu.Unlock()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
