package main

import "github.com/agentic-research/genmeta/cmd"

func main() {
	cmd.Execute()
}
