package main

import "reviewrag/internal/cli"

func main() {
	cli.Execute()
}
