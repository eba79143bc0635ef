// Package watch drives bundlint's rerun-on-change mode. It monitors a
// source tree, coalesces rapid file events through a settle delay, and
// triggers the lint+bundle pipeline so that exactly one run is in flight
// at any time. Changes arriving mid-run are carried into one follow-up
// run instead of being dropped.
package watch
