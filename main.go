package main

import "github.com/cargo-runner/cargo-runner/cmd"

func main() {
	cmd.Execute()
}
