package main

import "github.com/uiucal/uiucal/internal/cli"

func main() {
	cli.Execute()
}
