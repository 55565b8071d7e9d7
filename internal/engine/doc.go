// Package engine attaches a markup tree to data.
//
// Attach runs the binder over the tree once. Every refresh afterwards is a
// two-phase cycle: all Bindings compute their mutations against a consistent
// snapshot of the data, then the queued mutations are applied in order.
// With initial data the Handle owns a reactive model whose mutations
// schedule debounced refreshes on their own.
package engine
