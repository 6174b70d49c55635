// Package visitors stores visitor log entries.
//
// Entries are arbitrary JSON objects sent by the browser. They are encoded
// through protobuf's Struct well-known type with protojson, one compact
// object per line, and a serverTimestamp field is added on append.
package visitors
