// Package counts produces the count table the selector draws from.
//
// Three providers are available:
//   - Static: counts fixed in configuration
//   - Remote: per-category directory listings from the GitHub contents API,
//     cached per category
//   - File: a single counts.json document, cached as a whole
//
// Providers never fail. When an upstream call fails they serve the last value
// they saw, or zero when they have never seen one; a zero count makes the
// category unavailable rather than inventing images that may not exist.
package counts
