// Package output renders scan reports in text, Markdown, JSON, and SARIF
// formats. All writers consume the aggregated report and never re-query
// scan state.
package output
