// Command recsrc compiles YAML plan documents into record-source trees and
// explains or executes them.
package main

import (
	"fmt"
	"os"

	// Drivers for plan tables backed by SQL sources.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var (
	version   = "0.1.0"
	buildDate = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
