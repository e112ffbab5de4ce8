package main

import (
	"os"

	"github.com/soundprediction/go-geoai/cmd/geoai"
)

func main() {
	if err := geoai.Execute(); err != nil {
		os.Exit(1)
	}
}
