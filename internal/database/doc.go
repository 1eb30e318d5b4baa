// Package database provides PostgreSQL connectivity and repositories.
//
// Uses pgx for connection pooling. Repositories implement the read-only
// domain interfaces StandingsRepository and ContestRepository; the ledger is
// mutated elsewhere.
package database
