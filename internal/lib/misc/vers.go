package misc

import (
	"fmt"
	"runtime/debug"
	"slices"
)

const version = "v0.1.0"

// GetVersionInfo returns the release version and the short vcs revision the binary was built from.
func GetVersionInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	vcsRev := "(unknown)"
	if fnd := slices.IndexFunc(info.Settings, func(v debug.BuildSetting) bool { return v.Key == "vcs.revision" }); fnd != -1 {
		vcsRev = info.Settings[fnd].Value
		if len(vcsRev) > 7 {
			vcsRev = vcsRev[:7]
		}
	}
	return fmt.Sprintf("%s %s", version, vcsRev)
}
