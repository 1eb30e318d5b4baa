// Package broadcast implements the real-time fan-out core: a registry of
// live streaming connections and a broadcaster that pushes full leaderboard
// snapshots to each of them on an independent per-connection schedule.
//
// Every push is a complete replacement (never a diff), so dropped or stale
// frames are harmless: the next envelope carries the full state. Writes to
// clients go through dedicated writer goroutines with bounded buffers, which
// isolates slow or dead clients from the rest of the fan-out.
package broadcast
