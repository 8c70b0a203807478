// Package version exposes the build metadata stamped into the svgs2fonts
// binary at link time via -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// These variables are set at build time using -ldflags.
var (
	// Version is the semantic version of the tool.
	Version = "dev"

	// GitCommit is the git commit hash the binary was built from.
	GitCommit = "unknown"

	// BuildTime is the RFC3339 timestamp of the build.
	BuildTime = "unknown"
)

// Info holds the resolved build metadata.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
}

// Get returns the resolved build metadata, falling back to the module's
// embedded VCS information when ldflags were not provided.
func Get() *Info {
	return &Info{
		Version:   Current(),
		GitCommit: commit(),
		BuildTime: parseTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Current returns the version string, preferring ldflags over VCS metadata.
func Current() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return "dev-" + setting.Value[:7]
			}
		}
	}
	return "dev"
}

// Short returns a one-line version suitable for --version output.
func Short() string {
	v := Current()
	c := commit()
	if c != "unknown" && len(c) >= 7 && v != "dev" && !strings.HasPrefix(v, "dev-") {
		return fmt.Sprintf("%s (%s)", v, c[:7])
	}
	return v
}

// Detailed returns a multi-line version report.
func Detailed() string {
	info := Get()
	parts := []string{"svgs2fonts " + info.Version}
	if info.GitCommit != "unknown" {
		parts = append(parts, "commit: "+info.GitCommit)
	}
	if !info.BuildTime.IsZero() {
		parts = append(parts, "built: "+info.BuildTime.Format(time.RFC3339))
	}
	parts = append(parts, "go: "+info.GoVersion, "platform: "+info.Platform)
	return strings.Join(parts, "\n")
}

func commit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

func parseTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
