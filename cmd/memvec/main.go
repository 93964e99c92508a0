package main

import "memvec/internal/cli"

func main() {
	cli.Execute()
}
