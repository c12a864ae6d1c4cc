package openai

// ModelPricing contains per-token pricing information for OpenAI models
// Prices are in USD per million tokens
type ModelPricing struct {
	PromptPrice     float64 // USD per 1M prompt tokens
	CompletionPrice float64 // USD per 1M completion tokens
}

// modelPricing contains list prices for the chat models the chain uses
var modelPricing = map[string]ModelPricing{
	"gpt-4o": {
		PromptPrice:     2.50,
		CompletionPrice: 10.00,
	},
	"gpt-4o-mini": {
		PromptPrice:     0.15,
		CompletionPrice: 0.60,
	},
	"gpt-4.1": {
		PromptPrice:     2.00,
		CompletionPrice: 8.00,
	},
	"gpt-4.1-mini": {
		PromptPrice:     0.40,
		CompletionPrice: 1.60,
	},
	"gpt-4.1-nano": {
		PromptPrice:     0.10,
		CompletionPrice: 0.40,
	},
	"gpt-4-turbo": {
		PromptPrice:     10.00,
		CompletionPrice: 30.00,
	},
	"gpt-3.5-turbo": {
		PromptPrice:     0.50,
		CompletionPrice: 1.50,
	},
}

// DefaultPricingFallback is the cost per request when model pricing is unknown
const DefaultPricingFallback = 0.001

// CalculateCost computes the cost of an API call based on token usage
// Returns cost in USD
func CalculateCost(model string, promptTokens, completionTokens int) float64 {
	pricing, found := modelPricing[model]
	if !found {
		return DefaultPricingFallback
	}

	promptCost := (float64(promptTokens) / 1_000_000.0) * pricing.PromptPrice
	completionCost := (float64(completionTokens) / 1_000_000.0) * pricing.CompletionPrice

	return promptCost + completionCost
}

// GetPricing returns pricing information for a model, if available
func GetPricing(model string) (ModelPricing, bool) {
	pricing, found := modelPricing[model]
	return pricing, found
}
