package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCost(t *testing.T) {
	c := NewCostCalculator()

	assert.InDelta(t, 2.50+10.00, c.CalculateCost("gpt-4o", 1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 0.15, c.CalculateCost("GPT-4o-mini", 1_000_000, 0), 1e-9)
}

func TestPriceUsesLongestPrefix(t *testing.T) {
	c := NewCostCalculator()

	assert.Equal(t, c.Price("gpt-4o-mini"), c.Price("gpt-4o-mini-2024-07-18"))
	assert.Equal(t, c.Price("gpt-4o"), c.Price("gpt-4o-2024-08-06"))
	assert.Zero(t, c.CalculateCost("my-local-model", 1000, 1000))
}

func TestSetPrice(t *testing.T) {
	c := NewCostCalculator()
	c.SetPrice("qwen2.5-coder:7b", PricingModel{InputPrice: 1, OutputPrice: 2})

	assert.InDelta(t, 3.0, c.CalculateCost("qwen2.5-coder:7b", 1_000_000, 1_000_000), 1e-9)
}
