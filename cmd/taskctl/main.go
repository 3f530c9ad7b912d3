package main

import (
	"os"

	"github.com/chepyr/go-task-board/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
