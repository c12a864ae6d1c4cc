package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCost(t *testing.T) {
	// ($3.00 * 10000/1M) + ($15.00 * 5000/1M)
	assert.InDelta(t, 0.105, CalculateCost("claude-3-5-sonnet-latest", 10000, 5000), 1e-9)
	assert.InDelta(t, 0.0, CalculateCost("claude-3-haiku-20240307", 0, 0), 1e-12)
	assert.Equal(t, DefaultPricingFallback, CalculateCost("claude-unknown", 1, 1))
}

func TestGetPricing(t *testing.T) {
	p, ok := GetPricing("claude-haiku-4-5")
	assert.True(t, ok)
	assert.Equal(t, 1.00, p.InputPrice)

	_, ok = GetPricing("gpt-4o")
	assert.False(t, ok)
}
