package main

import (
	"os"

	"github.com/poofware/locshare-service/cmd/locshare/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
