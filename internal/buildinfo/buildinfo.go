// Package buildinfo holds release metadata set at link time, e.g.
//
//	go build -ldflags "-X github.com/garyellow/course-advisor-go/internal/buildinfo.Version=v1.2.0"
package buildinfo

// Set with -ldflags -X. Empty in development builds.
var (
	Version   = ""
	Commit    = ""
	BuildDate = "" // RFC3339
)
