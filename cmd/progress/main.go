package main

import (
	"os"

	"github.com/dmitrijs2005/progresskeeper/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
