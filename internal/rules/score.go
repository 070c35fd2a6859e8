package rules

import "github.com/shopspring/decimal"

// Specificity weights. Token credit saturates after a few tokens so that
// an exact-amount rule cannot be dominated purely by description length;
// amount presence is the strongest single signal.
const (
	tokenWeight    = 0.15
	tokenWeightCap = 0.5
	amountWeight   = 0.25
	currencyWeight = 0.15
)

// SpecificityScore estimates how narrowly a rule targets a transaction,
// in [0, 1]. It is a pure, order-independent function of the rule's token
// count and whether the rule pins an amount and a currency.
func SpecificityScore(tokens []string, amount *decimal.Decimal, currency string) float64 {
	score := 0.0

	if len(tokens) > 0 {
		tokenScore := float64(len(tokens)) * tokenWeight
		if tokenScore > tokenWeightCap {
			tokenScore = tokenWeightCap
		}
		score += tokenScore
	}

	if amount != nil {
		score += amountWeight
	}

	if currency != "" {
		score += currencyWeight
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
