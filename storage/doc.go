// Package storage owns the records that pair host objects with boxed
// extension values.
//
// # Lifecycle
//
// A record moves through three states:
//
//	Created          borrows allowed
//	MarkedDestroyed  free has started; every borrow is a contract violation
//	Freed            value released, handle stale, slot recycled
//
// Handles are generational: once a record is freed its handle never resolves
// again, even after the slot is reused.
//
//	table := storage.NewTable()
//	inst := table.Insert(storage.Record{Class: "Player", Value: p, Object: obj})
//	inst.BorrowMut(func(v any) { v.(*Player).HP-- })
//	table.Free(inst.Handle(), nil)
//
// # Borrows
//
// Borrow gives shared access and BorrowMut exclusive access. They detect
// reentrant misuse on one instance in the single-threaded host model and are
// not a substitute for a mutex across goroutines.
package storage
