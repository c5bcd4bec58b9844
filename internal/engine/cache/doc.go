// Package cache keeps JSON snapshots of remote data on local disk.
//
// truequote stores the templates fetched from the question database here so
// repeated CLI runs and offline validation need no live connection. Each
// snapshot records the source it came from and expires after the store's
// TTL (default one day). Snapshots live under the configured cache
// directory, default ~/.truequote/cache.
package cache
