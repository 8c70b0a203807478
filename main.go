package main

import (
	"os"

	"github.com/MichealWayne/svgs2fonts-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
