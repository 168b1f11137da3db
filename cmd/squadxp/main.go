// Package main is the single-binary entrypoint for squadxp.
package main

import "github.com/squadplanner/squadxp/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
