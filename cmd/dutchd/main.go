package main

import (
	"github.com/dutchd/dutchd/internal/cli"
)

func main() {
	cli.Execute()
}
