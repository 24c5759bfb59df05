// Package version carries build metadata for the client binaries.
//
// Set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/playersocket/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/playersocket/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the build metadata reported by the health endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Get returns the current build metadata.
func Get() Info {
	return Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s) built %s", i.Version, i.Commit, i.BuildTime)
}

// UserAgent is the User-Agent header sent on the WebSocket handshake.
func UserAgent() string {
	return "playersocket/" + Version
}
