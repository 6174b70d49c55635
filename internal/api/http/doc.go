// Package httpapi is the public HTTP surface: report submission for each
// channel, the WhatsApp webhook, the visitor log, presence and metrics.
package httpapi
