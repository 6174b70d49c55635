// Package broadcast fans one message out to the administrator and every
// subscriber of a channel.
//
// Deliveries run concurrently with a bounded worker count. A failed recipient
// is recorded in the summary and never stops the others.
package broadcast
