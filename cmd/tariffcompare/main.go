package main

import (
	"tariff-compare/internal/cli"
)

func main() {
	cli.Execute()
}
