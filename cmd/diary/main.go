package main

import (
	"os"

	"github.com/aschepis/backscratcher/diary/cli"
)

func main() {
	if err := cli.New().Execute(); err != nil {
		os.Exit(1)
	}
}
