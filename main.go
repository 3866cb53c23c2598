package main

import "github.com/formweave/formweave/cmd"

func main() {
	cmd.Execute()
}
