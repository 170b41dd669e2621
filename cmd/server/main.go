package main

import "github.com/mcoot/posrelay/internal/cli"

func main() {
	cli.Execute()
}
