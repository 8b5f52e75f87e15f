package main

import (
	"github.com/matjam/hwcomposer/internal/cli"
)

func main() {
	cli.Execute()
}
