// Package buildinfo carries version metadata stamped in at link time, e.g.
//
//	go build -ldflags "-X github.com/kunal-geeks/chunkroot/internal/buildinfo.Version=v0.3.0"
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
	Go      = runtime.Version()
	OS      = runtime.GOOS
	Arch    = runtime.GOARCH
)

// String returns a one-line description of the build.
func String() string {
	s := "chunkroot " + Version
	if Commit != "" {
		s += " (" + Commit
		if Date != "" {
			s += ", " + Date
		}
		s += ")"
	}
	return fmt.Sprintf("%s %s %s/%s", s, Go, OS, Arch)
}
