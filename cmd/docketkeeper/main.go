package main

import (
	"os"

	"github.com/solatis/docketkeeper/cmd/docketkeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
