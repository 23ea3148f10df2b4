package main

import (
	"os"

	"github.com/Doomsbay/BactCore/bactcore/cmd"
)

func main() {
	cmd.Execute(os.Args[1:])
}
