package main

import (
	"os"

	"github.com/MeKo-Tech/handscan/cmd/handscan/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
