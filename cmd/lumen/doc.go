// Lumen is a CLI that scans source trees for security and performance
// issues using LLM providers.
//
// It discovers supported source files, crosses them with a prompt catalog,
// batches the resulting checks under a token budget, sends them to the
// configured provider, and demultiplexes the responses into a per-file
// report with deterministic exit codes suitable for CI gating.
//
// Usage:
//
//	lumen scan ./src                  # scan a source tree
//	lumen scan app.py --categories security
//	lumen prompts                     # list the analysis catalog
//	lumen config init                 # write a default config file
//	lumen cache stats                 # inspect the response cache
//
// See https://github.com/lumenscan/lumen for full documentation.
package main
