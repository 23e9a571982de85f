package main

import "github.com/orionlab/cube-tools-mcp/internal/cli"

func main() {
	cli.Execute()
}
