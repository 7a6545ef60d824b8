package main

import "nftmarket_go/internal/cli"

func main() {
	cli.Execute()
}
