// Package common holds constants shared by every binary in this module.
package common

// PackageName identifies this service in logs and metrics.
const PackageName = "new-chat"

// Version is the service version reported at startup.
// Overridden at build time via -ldflags.
var Version = "dev"
