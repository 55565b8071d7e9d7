// Package scheduler coalesces refresh requests into debounced cycles.
//
// A Trigger while idle arms a cycle on the next scheduling turn and returns a
// Signal that resolves when that cycle finishes. Triggers that arrive before
// the cycle starts join it: they replace the data the cycle will see and get
// the same Signal back. At most one cycle runs at a time; a Trigger during a
// running cycle queues exactly one follow-up, armed after the running cycle
// resolves.
package scheduler
