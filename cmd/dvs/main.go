package main

import "github.com/dvs-io/dvs/cmd/dvs/cmd"

func main() {
	cmd.Execute()
}
