package main

import "github.com/YuminosukeSato/mlworkflow/internal/commands"

func main() {
	commands.Execute()
}
