// Command catalogctl lists and browses the course catalog from a terminal.
// It fetches the collection from a provider and runs the listing pipeline
// locally.
package main

import (
	"fmt"
	"os"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "catalogctl:", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
