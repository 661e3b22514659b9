package version

import "runtime/debug"

// Version is empty unless set at build time with something like:
// go build -ldflags "-X github.com/vexedit/vexedit/version.Version=$(git describe --dirty)" ./cmd/vexedit
var Version string

// Hash is the short VCS revision the binary was built from, with "-dirty"
// appended for a modified working tree.
var Hash = vcsHash()

func vcsHash() string {
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
		return revision + "-dirty"
	}
	return revision
}

// String returns Version, or Hash when Version was not set, or "dev" for a
// build with neither.
func String() string {
	switch {
	case Version != "":
		return Version
	case Hash != "":
		return Hash
	}
	return "dev"
}
