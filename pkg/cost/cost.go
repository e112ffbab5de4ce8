// Package cost estimates the USD price of model calls from token counts.
package cost

import (
	"strings"
	"sync"
)

// PricingModel defines the cost per 1M tokens (standard industry pricing unit)
type PricingModel struct {
	InputPrice  float64 // Cost per 1M input tokens
	OutputPrice float64 // Cost per 1M output tokens
}

// CostCalculator calculates estimated costs for LLM usage
type CostCalculator struct {
	mu     sync.RWMutex
	prices map[string]PricingModel
}

// NewCostCalculator creates a new calculator with default pricing
func NewCostCalculator() *CostCalculator {
	c := &CostCalculator{
		prices: make(map[string]PricingModel),
	}
	c.loadDefaults()
	return c
}

// SetPrice registers or overrides the price of a model.
func (c *CostCalculator) SetPrice(model string, price PricingModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[strings.ToLower(model)] = price
}

// Price returns the pricing used for model. Unknown models match the longest
// registered prefix, or cost nothing.
func (c *CostCalculator) Price(model string) PricingModel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := strings.ToLower(model)
	if price, ok := c.prices[name]; ok {
		return price
	}
	best, bestLen := PricingModel{}, 0
	for prefix, price := range c.prices {
		if strings.HasPrefix(name, prefix) && len(prefix) > bestLen {
			best, bestLen = price, len(prefix)
		}
	}
	return best
}

// CalculateCost returns the estimated cost in USD
func (c *CostCalculator) CalculateCost(model string, promptTokens, completionTokens int) float64 {
	price := c.Price(model)
	inputCost := (float64(promptTokens) / 1_000_000.0) * price.InputPrice
	outputCost := (float64(completionTokens) / 1_000_000.0) * price.OutputPrice
	return inputCost + outputCost
}

// loadDefaults loads list prices of the models commonly used for code generation.
func (c *CostCalculator) loadDefaults() {
	// OpenAI
	c.prices["gpt-4o"] = PricingModel{InputPrice: 2.50, OutputPrice: 10.00}
	c.prices["gpt-4o-mini"] = PricingModel{InputPrice: 0.15, OutputPrice: 0.60}
	c.prices["gpt-4.1"] = PricingModel{InputPrice: 2.00, OutputPrice: 8.00}
	c.prices["gpt-4.1-mini"] = PricingModel{InputPrice: 0.40, OutputPrice: 1.60}
	c.prices["gpt-4-turbo"] = PricingModel{InputPrice: 10.00, OutputPrice: 30.00}
	c.prices["gpt-3.5-turbo"] = PricingModel{InputPrice: 0.50, OutputPrice: 1.50}
	c.prices["o1-mini"] = PricingModel{InputPrice: 3.00, OutputPrice: 12.00}

	// Anthropic
	c.prices["claude-sonnet-4-5"] = PricingModel{InputPrice: 3.00, OutputPrice: 15.00}
	c.prices["claude-haiku-4-5"] = PricingModel{InputPrice: 1.00, OutputPrice: 5.00}

	// Google
	c.prices["gemini-2.5-flash"] = PricingModel{InputPrice: 0.30, OutputPrice: 2.50}
	c.prices["gemini-2.5-pro"] = PricingModel{InputPrice: 1.25, OutputPrice: 10.00}
	c.prices["gemini-2.0-flash"] = PricingModel{InputPrice: 0.10, OutputPrice: 0.40}
	c.prices["gemini-1.5-pro"] = PricingModel{InputPrice: 1.25, OutputPrice: 5.00}

	// Together AI
	c.prices["meta-llama/llama-3.3-70b-instruct-turbo"] = PricingModel{InputPrice: 0.88, OutputPrice: 0.88}
	c.prices["qwen/qwen2.5-coder-32b-instruct"] = PricingModel{InputPrice: 0.80, OutputPrice: 0.80}
	c.prices["deepseek-ai/deepseek-v3"] = PricingModel{InputPrice: 1.25, OutputPrice: 1.25}
}
