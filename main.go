package main

import "github.com/KaramelBytes/cadence-cli/cmd"

func main() {
	cmd.Execute()
}
