// Package subscription answers chat messages and registers chats that ask
// to receive lost-person alerts.
package subscription
