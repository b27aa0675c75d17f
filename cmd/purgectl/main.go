// Package main provides purgectl, the operator CLI for the purge-by-email
// recovery endpoint of the accounts service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
