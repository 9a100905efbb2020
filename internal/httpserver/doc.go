// Package httpserver wraps net/http.Server with address validation and
// graceful shutdown.
package httpserver
