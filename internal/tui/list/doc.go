// Package listview is a generic scrolling list for Bubble Tea views. Only
// the rows inside the window are rendered, so long detail pages stay cheap
// to redraw.
package listview
