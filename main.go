package main

import "github.com/mj1618/inspector-cli/cmd"

func main() {
	cmd.Execute()
}
