// Package standings computes ranked leaderboard snapshots from the point
// ledger. Ranking is a pure function of stored state: points descending,
// ties broken by who reached their current total first, dense ranks 1..N.
package standings
