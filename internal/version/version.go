// Package version contains the client version.
package version

// Version is the software version.
const Version = "1.2.0"
