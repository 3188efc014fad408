package framework

import (
	"math"
)

// EstimateTokens performs a cheap heuristic conversion from characters to
// tokens. It is only used for logging prompt sizes.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return maxInt(1, int(math.Ceil(float64(len(text))/4.0)))
}

// EstimateCodeTokens is EstimateTokens for source code, which tokenizes denser.
func EstimateCodeTokens(code string) int {
	if code == "" {
		return 0
	}
	return maxInt(1, int(math.Ceil(float64(len(code))/2.5)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
