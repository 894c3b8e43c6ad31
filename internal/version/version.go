// Package version provides version information and display utilities for
// TelTap. The version string is printed at daemon startup and on request
// via the -version flag.
package version

import (
	"fmt"
	"os"
)

const (
	// Name of TelTap.
	Name string = "TelTap"
	// Version of TelTap.
	Version string = "1.2.0"
	// Additional information for TelTap
	Additional string = "Receive-only telnet feed provider"
)

// String returns a plain text representation of the TelTap version
// information including application name, version number and additional
// information.
func String() string {
	return fmt.Sprintf("%s %v %s", Name, Version, Additional)
}

// Print the version.
func Print() {
	fmt.Println(String())
}

// PrintAndExit prints the program version and exists.
func PrintAndExit() {
	Print()
	os.Exit(0)
}
