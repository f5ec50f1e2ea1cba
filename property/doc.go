// Package property holds property descriptors and the loan bookkeeping for
// property-list arrays handed to the host.
//
// Info is the borrowed form: a plain value the bridge never frees.
// abi.PropertyInfoSys is the owned form; its string fields are separate
// allocations that must be released exactly once. A Ledger issues both the
// arrays (Lend) and their owned fields, and takes them back (Reclaim).
package property
