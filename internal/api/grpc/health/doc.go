// Package health serves the standard gRPC health-checking protocol with one
// service entry per messaging channel, plus server reflection.
package health
