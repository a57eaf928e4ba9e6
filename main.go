package main

import "github.com/cameronsjo/deploybump/internal/cmd"

func main() {
	cmd.Execute()
}
