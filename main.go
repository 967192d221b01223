package main

import "github.com/firi/lsp-broker/cmd"

func main() {
	cmd.Execute()
}
