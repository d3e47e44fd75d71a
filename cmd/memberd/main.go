package main

import (
	"os"

	"github.com/jsiebens/memberd/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
