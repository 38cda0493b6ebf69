// Package main is the entry point for the ekscompose CLI.
//
// ekscompose reads the configuration of an EKS cluster, builds the resource
// graph of every project and hands it to Terraform.
//
// Commands: synth, plan, apply, version.
package main

import (
	"fmt"
	"os"

	"github.com/jmcastellanojimenez/ekscompose/cmd/ekscompose/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersionInfo(version, commit)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
