// Package cache implements the content-addressed download cache. Entries live
// under <root>/<checksum>/<original-filename>, are written once by the
// verified fetcher and never mutated afterwards. The cache is shared between
// unrelated processes without locks: every read re-validates the entry
// (single regular file, checksum match) and any anomaly degrades the call to
// an uncached download instead of failing it.
package cache
