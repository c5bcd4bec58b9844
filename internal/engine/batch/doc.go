// Package batch runs an independent job over every item of a list, either
// one item at a time or with bounded concurrency.
//
// Results are returned in input order regardless of completion order, so a
// concurrent run produces the same output as a sequential one. The first
// job error cancels the remaining work.
package batch
