package main

import "github.com/ponyo877/sketchsphere/server/cmd"

func main() {
	cmd.Execute()
}
