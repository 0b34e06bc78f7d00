package main

import "github.com/ponyo877/sketchsphere/cli/cmd"

func main() {
	cmd.Execute()
}
