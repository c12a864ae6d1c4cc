// Package version reports which gateway build is answering. The values come
// from -ldflags when the release pipeline stamps them and otherwise from the
// VCS data the Go toolchain embeds in the binary.
//
//	go build -ldflags "-X github.com/horasecreta/advisor/version.Version=v1.4.0 \
//	  -X github.com/horasecreta/advisor/version.CommitHash=$(git rev-parse HEAD)"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags -X
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// ServiceName identifies the gateway on /health, in the banner and in logs
const ServiceName = "horasecreta-ai"

// Info describes the running build
type Info struct {
	Service    string `json:"service"`
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Dirty      bool   `json:"dirty,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the running build. Unstamped fields fall back to the embedded
// VCS revision and commit time.
func Get() Info {
	info := Info{
		Service:    ServiceName,
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = withVCS(info, bi.Settings)
	}
	return info
}

func withVCS(info Info, settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.CommitHash == "dev" && s.Value != "" {
				info.CommitHash = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && s.Value != "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String renders the build for `advisor version` and the startup banner
func (i Info) String() string {
	v := i.Version
	if i.Dirty {
		v += "+dirty"
	}
	return fmt.Sprintf("%s %s (commit %s, built %s)", ServiceName, v, i.Short(), i.BuildTime)
}

// Short is the abbreviated commit
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
