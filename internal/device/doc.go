// Package device classifies clients as mobile or desktop from their
// User-Agent header.
package device
