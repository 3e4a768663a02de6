// Package version resolves the build version reported by the CLI.
package version

import "runtime/debug"

// Version can be injected at build time:
// go build -ldflags "-X github.com/arjunparightsolutions/chendai/version.Version=$(git describe --dirty)"
var Version string

// String returns the injected version if set, otherwise the short VCS
// revision from the build info, with a -dirty suffix when the tree was
// modified. Falls back to "devel" when neither is available.
func String() string {
	if Version != "" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "devel"
	}
	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified {
		revision += "-dirty"
	}
	return revision
}
