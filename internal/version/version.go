// Package version provides version information.
package version

// Version is the current version of debugpy-mcp
const Version = "0.1.0"

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}
