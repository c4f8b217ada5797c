// Package version holds build metadata, set with -ldflags at release time.
package version

// Version is overridden by -ldflags "-X github.com/wlmr-rk/proj-nexus/pkg/version.Version=v1.2.3".
var Version = "dev"
