// Package version holds build identification, overridable at link time:
//
//	-ldflags "-X github.com/kburke8/poe-watcher/internal/version.Version=v0.2.0"
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the /version response body.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build info.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}
