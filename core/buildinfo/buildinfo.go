// Package buildinfo carries version metadata stamped at link time, e.g.
//
//	go build -ldflags "-X github.com/m3rciful/orderbot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/orderbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

var (
	Version = "dev"
	Commit  = "local"
	// Date is the build time in RFC 3339.
	Date = ""
)

// String renders the build as "version (commit)".
func String() string {
	return Version + " (" + Commit + ")"
}
