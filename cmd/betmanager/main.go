package main

import "github.com/betmanager/betmanager/internal/cli"

func main() {
	cli.Execute()
}
