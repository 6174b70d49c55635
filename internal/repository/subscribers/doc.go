// Package subscribers implements the recipient registry.
//
// The FileRegistry keeps one identifier per line in append order. Entries
// are never removed, so membership only grows.
package subscribers
