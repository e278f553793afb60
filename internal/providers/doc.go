// Package providers implements the inference boundary: thin clients for
// hosted and local chat-completion endpoints, typed error classification
// (rate limit, auth, transport), and the bounded retry/backoff policy
// applied around every model call.
package providers
