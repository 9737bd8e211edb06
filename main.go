package main

import "pkgsmith/internal/cli"

func main() {
	cli.Execute()
}
