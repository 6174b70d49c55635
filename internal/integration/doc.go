// Package integration boots the real lost-alarm server against fake
// messaging APIs.
package integration
