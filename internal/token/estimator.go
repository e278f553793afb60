package token

import "unicode/utf8"

// Estimator estimates the token cost of a piece of text.
type Estimator interface {
	Estimate(text string) int
}

// defaultCharsPerToken is the character-to-token ratio for the heuristic
// estimator. Four characters per token is a reasonable approximation for
// English prose and most source code.
const defaultCharsPerToken = 4

// CharEstimator estimates tokens from rune count using a fixed
// characters-per-token ratio. Rune count, not byte count, so multi-byte
// text does not inflate the estimate.
type CharEstimator struct {
	CharsPerToken int // 0 means defaultCharsPerToken
}

func (e CharEstimator) ratio() int {
	if e.CharsPerToken <= 0 {
		return defaultCharsPerToken
	}
	return e.CharsPerToken
}

// Estimate returns the estimated token count for text. Empty text costs
// zero; any non-empty text costs at least one token.
func (e CharEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / e.ratio()
	if n < 1 {
		return 1
	}
	return n
}
