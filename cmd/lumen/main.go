package main

import (
	"os"

	"github.com/lumenscan/lumen/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
