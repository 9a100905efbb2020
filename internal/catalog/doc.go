// Package catalog defines the image categories, their URL prefixes, the
// count table, and the mapping from img query values to selection routes.
package catalog
