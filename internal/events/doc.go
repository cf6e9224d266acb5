// Package events decouples the services that request background work from
// the task runtime that performs it. A service emits a TaskRequestEvent and
// never learns which handler, if any, turned it into a task.
package events
