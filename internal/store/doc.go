// Package store provides the SQLite-backed receipt journal.
//
// The journal is an append-only audit log of received lines. It is not the
// queue: pending instructions live only in memory and are not restored on
// restart. The journal answers "what came in, and why was it rejected",
// so an operator can pull rejected raw lines for manual inspection.
//
// # Records
//
//   - One receipt per Receive call, accepted or rejected
//   - Accepted receipts carry the enqueue seq and the canonical JSON payload
//   - Rejected receipts carry the error kind, code and message
//
// # Ordering
//
// Reads return receipts in insertion order (SQLite rowid), which for a single
// receiver is arrival order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
