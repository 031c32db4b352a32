package config

// Version is the eternal binary version.
// Set at build time via: -ldflags "-X github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
