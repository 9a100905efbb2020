// Package healthcheck monitors image availability. A Monitor refreshes the
// count table on an interval, which keeps provider caches warm, and logs
// categories as they run out of images or come back.
package healthcheck
