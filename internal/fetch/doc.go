// Package fetch downloads a single remote artifact and proves its integrity
// before handing it to the caller. The body is streamed through an
// incremental digest straight to disk, transient network failures are retried
// with exponential backoff, and the finished file is only reported as ready
// once its digest matches the caller-supplied checksum. The cache layer in
// internal/cache builds on this package; nothing here knows about caching.
package fetch
