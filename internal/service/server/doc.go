// Package server runs the lost-alarm HTTP API, the gRPC health endpoint and
// the Telegram listener until the context is canceled.
package server
