// Package telegram is the Telegram Bot API backend.
//
// Alerts are sent with HTML markup. Subscription commands arrive through
// getUpdates long polling and are answered with plain text.
package telegram
