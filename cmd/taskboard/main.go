package main

import (
	"os"

	"github.com/amirbrooks/taskboard/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
