package app

// Build information set with -ldflags at build time.
var (
    // BuildVersion is the semantic version of the binary.
    BuildVersion = "0.0.0-dev"
    // BuildCommit is the VCS commit of the build.
    BuildCommit = "unknown"
)

// Version renders the build information for the CLI.
func Version() string {
    return BuildVersion + " (" + BuildCommit + ")"
}
