package main

import (
	"os"

	"github.com/raikhel/botflow/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
