package main

import (
	"os"

	"github.com/resctl/resctl/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
