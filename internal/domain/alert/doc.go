// Package alert contains the core domain types of the lost-person flow.
//
// A Report is what a visitor submits, a Summary is what one broadcast of a
// composed alert produced. The sentinel errors classify every failure the
// boundary has to translate into a response.
package alert
