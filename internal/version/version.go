// ABOUTME: Version and product identification
// ABOUTME: Reported in logs, the relay hello and the CLI -version flag
package version

// Version is overridden at build time with -ldflags "-X"
var Version = "0.3.0"

const (
	Product      = "ARGON"
	Manufacturer = "ZIM core"
)

// String returns the product banner
func String() string {
	return Product + " " + Version + " (" + Manufacturer + ")"
}
