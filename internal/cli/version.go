package cli

import (
	"runtime/debug"
	"strings"
)

const devVersion = "dev"

var readBuildInfo = debug.ReadBuildInfo

// resolvedVersion prefers a version injected at link time, then the module
// version recorded by `go install`, then the VCS revision of a local build.
func resolvedVersion(injected string) string {
	injected = strings.TrimSpace(injected)
	if injected != "" && injected != devVersion {
		return injected
	}
	if info, ok := readBuildInfo(); ok && info != nil {
		if v := versionFromBuildInfo(info); v != "" {
			return v
		}
	}
	return devVersion
}

func versionFromBuildInfo(info *debug.BuildInfo) string {
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
		return v
	}
	settings := make(map[string]string, len(info.Settings))
	for _, setting := range info.Settings {
		settings[setting.Key] = strings.TrimSpace(setting.Value)
	}
	revision := settings["vcs.revision"]
	if revision == "" {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if strings.EqualFold(settings["vcs.modified"], "true") {
		revision += "-dirty"
	}
	return revision
}
