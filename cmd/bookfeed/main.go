package main

import (
	"github.com/LeJamon/goXRPLbooks/internal/cli"
)

func main() {
	cli.Execute()
}
