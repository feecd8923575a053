// Package version holds the build version, set with:
//
//	go build -ldflags "-X github.com/ramonehamilton/manaforge/internal/version.Version=v1.2.3"
package version

// Version is the application version.
var Version = "dev"

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}
