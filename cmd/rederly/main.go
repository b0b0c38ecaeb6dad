// rederly is the command-line client of the Rederly course platform.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
