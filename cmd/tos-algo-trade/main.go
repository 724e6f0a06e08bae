package main

import (
	"os"

	"github.com/ganchinyao/tos-algo-trade/cmd/tos-algo-trade/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
