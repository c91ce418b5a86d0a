package main

import "github.com/resopt/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
