// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// Every mutation that several actors may race on (attempt counters,
// progress percentages) is expressed as a single atomic operation here,
// never as read-then-write in the caller.
package store
