package main

import (
	"os"

	"github.com/pkgnorm/pkgnorm/cmd/pkgnorm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
