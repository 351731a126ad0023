package main

import "Paggo/backend/go/cmd/docctl/cmd"

func main() {
	cmd.Execute()
}
