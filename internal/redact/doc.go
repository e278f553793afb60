// Package redact scrubs secrets from code snippets before they are sent to
// an LLM provider. Detection is regex-heuristic; replacements keep the
// surrounding code readable so the analysis prompt still makes sense.
package redact
