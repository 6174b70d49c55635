// Package logger wraps zap for the whole service:
//   - a global sugared logger (console or JSON encoder),
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and adjustment,
//   - shorthand functions (InfoKV, ErrorKV, ...) that log through the
//     logger carried by a context.
//
// Handlers, dispatchers and pollers receive a context and never hold a
// logger of their own.
package logger
