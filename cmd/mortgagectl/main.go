// Command mortgagectl runs the mortgage, HELOC and Smith Maneuver calculations over a
// YAML portfolio file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
