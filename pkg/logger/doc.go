// Package logger builds the application's slog logger: JSON records in
// production, human-readable text elsewhere, each tagged with the service
// name and environment.
package logger
