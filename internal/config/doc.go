// Package config defines the settings of the lost-alarm binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Defaults come from struct tags, ${ENV} references are expanded before
// decoding so bot tokens can stay out of the file.
package config
