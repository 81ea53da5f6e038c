package main

import (
	"audioforge/cmd"
)

func main() {
	cmd.Execute()
}
