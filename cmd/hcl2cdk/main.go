// Package main provides the hcl2cdk CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/architect-io/hcl2cdk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
