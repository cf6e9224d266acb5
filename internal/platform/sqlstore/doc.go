// Package sqlstore implements the store interfaces over database/sql for two
// backends: PostgreSQL through the pgx stdlib driver, and SQLite through the
// pure-Go modernc driver for single-node deployments and tests.
//
// Queries are built with squirrel so that one code path serves both
// placeholder styles. Concurrency-sensitive mutations (attempt claims,
// progress merges) are single SQL statements; callers never read-modify-write.
package sqlstore
