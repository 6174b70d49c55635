// Package whatsapp is the WhatsApp Cloud API backend.
//
// Alerts go out as text messages with *bold* markup. Inbound messages reach
// the service through the Meta webhook, which this package verifies and
// parses.
package whatsapp
