// Package version exposes build information injected at link time via
// -ldflags "-X github.com/Damola-Oyin/GasFeelContentChallenge/internal/version.Version=...".
package version

import "runtime"

// serviceName identifies this deployable in version payloads; the contest
// platform runs several services against the same ledger.
const serviceName = "leaderboard-stream"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the version payload served on /version.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Service:   serviceName,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}
