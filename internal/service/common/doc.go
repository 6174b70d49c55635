// Package common builds the pieces shared by the server and the operator CLI:
// messaging backends, subscriber registries, dispatchers and the reporting
// service, all from one loaded configuration.
package common
