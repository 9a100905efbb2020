// Package handler serves the image endpoint. It resolves the img kind and
// the client device to one or more categories, draws an image from the
// current count table and redirects to it. Unknown kinds and empty
// categories fall through to a plain-text help page.
package handler
