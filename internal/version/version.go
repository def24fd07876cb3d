// internal/version/version.go
package version

// Version is stamped at build time with -ldflags "-X bmalign/internal/version.Version=...".
var Version = "dev"
