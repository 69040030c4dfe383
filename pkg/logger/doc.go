// Package logger builds the slog logger shared by the router, the health
// checker and the metrics collector. Production environments get JSON
// output for log shipping, everything else a human-readable text handler.
package logger
