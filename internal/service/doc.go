// Package service contains the application use cases: playlist authoring and
// enrollment, watch progress, quiz generation, and user accounts.
//
// Services receive their store interfaces, external ports, and logger through
// constructors and never depend on a concrete database or API client.
// Operations that touch more than one table run in a single transaction via
// store.RunInTransaction, with each store bound to the transaction through
// WithTx.
//
// Summarization is asynchronous. CreatePlaylist persists one pending
// enrichment record per video and then emits a summary request event per
// video; emit failures are logged and left to the recovery scanner, so
// request handling never waits on or fails because of the workers.
package service
