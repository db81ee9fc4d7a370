package main

import "bsv/internal/cli"

func main() {
	cli.Main(cli.Unpack("bzstdd", "zstd"))
}
