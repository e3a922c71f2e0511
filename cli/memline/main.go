package main

import (
	"os"

	memlinecmder "github.com/dialpoint/memline/cmd/memline"
)

func main() {
	cmd := memlinecmder.NewMemlineCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
