// Package version reports the version of the binaries.
package version

import "runtime/debug"

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/harmonicpad/harmonic/version.Version=$(git describe --dirty)"

var Version string

// Hash is the short VCS revision the binary was built from, with a "-dirty"
// suffix for a modified tree, or empty when unknown.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		revision += "-dirty"
	}
	return revision
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "(devel)"
}()
