package main

import (
	"os"

	"github.com/bkarjoo/fastgtd-sub000/cmd/fastgtd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
