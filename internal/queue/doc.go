// Package queue holds validated instructions until a consumer takes them.
//
// ORDERING:
//
// Instructions leave the queue by priority tier (HIGH, MEDIUM, LOW) and,
// within a tier, in the order they were enqueued. Every enqueue is stamped
// with a strictly increasing sequence number from Clock, and that number is
// the secondary heap key. FIFO within a tier therefore holds for any
// interleaving of Enqueue and Dequeue calls, not only for runs of inserts.
//
// CONCURRENCY:
//
// One mutex guards every method as a unit, so producers and consumers may
// call from any goroutine. Nothing blocks on queue state: an empty queue
// answers Dequeue and Peek with ok=false and the consumer polls.
package queue
