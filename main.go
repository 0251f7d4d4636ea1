package main

import "github.com/parisxmas/central-admin/cmd"

func main() {
	cmd.Execute()
}
