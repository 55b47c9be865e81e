package main

import "github.com/devicelab-dev/uixpath/pkg/cli"

func main() {
	cli.Execute()
}
