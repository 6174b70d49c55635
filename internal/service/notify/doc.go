// Package notify implements the operator CLI that broadcasts a message or a
// location report without going through the HTTP API.
package notify
