package main

import "github.com/chilicat/scrbuild/internal/cli"

func main() {
	cli.Execute()
}
