package main

import "orarictl/cmd"

func main() {
	cmd.Execute()
}
