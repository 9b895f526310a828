package main

import "idlemark/internal/cli"

// set by -ldflags "-X main.version=..."
var version = "0.1.0"

func main() {
	cli.Execute(version)
}
