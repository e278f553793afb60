// Package cache provides a file-based cache for raw model responses.
//
// Entries are keyed by a SHA-256 hash of provider, model, and the full batch
// prompt, so a re-scan of unchanged files answers from disk instead of the
// provider. Each entry stores the response with a creation timestamp and TTL;
// expired entries are removed on read. Prompts reaching the cache have
// already been through secret redaction.
//
// The default cache directory is $XDG_CACHE_HOME/lumen (or the OS-appropriate
// equivalent).
package cache
