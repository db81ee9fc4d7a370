package main

import "bsv/internal/cli"

func main() {
	cli.Main(cli.BSchema())
}
