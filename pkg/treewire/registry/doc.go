// Package registry provides a generic thread-safe table mapping tree nodes
// to ordered lists of values.
//
// Table is the storage backbone of the listener engine. Each node gets a
// stable integer id from an internal side table on first insertion, and its
// values keep insertion order. The table never retains a node past an
// explicit Purge: removal detection is the caller's job, the table only
// guarantees that a purged key leaves nothing behind.
//
// # Basic Usage
//
// Create a table and add values under a key:
//
//	tbl := registry.NewTable[*Element, *Registration]()
//	first := tbl.Add(el, reg) // first == true on the key's first value
//
//	for _, reg := range tbl.ListFor(el) {
//	    // insertion order
//	}
//
//	removed := tbl.Purge(el) // drops the key entirely, returns its values
//
// # Thread Safety
//
// All Table methods are safe for concurrent use. Range iterates over a
// snapshot, so mutating the table during iteration is allowed and does not
// affect the current iteration.
package registry
