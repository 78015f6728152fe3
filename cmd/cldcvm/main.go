/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command cldcvm is the thin CLI driver: it wires a bootstrap/application
// archive and a main class into an internal/vm.VM and runs it to
// completion. None of this package's logic is part of the interpreter's
// correctness surface.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
