// Package token estimates the token cost of prompt text without calling a
// tokenizer service. Estimates are deterministic and monotone in text length;
// the planner absorbs the approximation error with a safety margin.
package token
