// Package domain contains the core entities of the content-enrichment pipeline:
// enrichment records and their retry state, playlists and their videos,
// per-user watch progress with its max-merge rules, and generated quizzes.
//
// Everything here is free of infrastructure. Stores persist these types and
// services orchestrate them, but the invariants live in this package.
package domain
