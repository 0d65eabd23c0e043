// Package buildconfig exposes metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/Harshitk-cp/vetpms/internal/buildconfig.version=1.2.0 \
//	  -X github.com/Harshitk-cp/vetpms/internal/buildconfig.commit=$(git rev-parse --short HEAD)"
package buildconfig

import "runtime"

const service = "vetpms"

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func Version() string { return version }

func Commit() string { return commit }

// UserAgent identifies this build in outgoing HTTP requests.
func UserAgent() string {
	return service + "/" + version + " (" + commit + ")"
}

// Info is served on /version.
func Info() map[string]string {
	info := map[string]string{
		"service":    service,
		"version":    version,
		"commit":     commit,
		"go_version": runtime.Version(),
	}
	if buildDate != "" {
		info["build_date"] = buildDate
	}
	return info
}
