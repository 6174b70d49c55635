// Package lockedfile serializes access to newline-delimited text files.
//
// Every File pairs an in-process RWMutex with an advisory OS lock on a
// sibling "<name>.lock" file, so goroutines of this process and other
// processes sharing the data directory never interleave a read-check-append.
package lockedfile
