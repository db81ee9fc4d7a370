package main

import "bsv/internal/cli"

func main() {
	cli.Main(cli.Unpack("blz4d", "lz4"))
}
