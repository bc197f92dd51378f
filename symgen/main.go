package main

import "symgen/symgen/cmd"

func main() {
	cmd.Execute()
}
