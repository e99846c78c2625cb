package main

import "tiksnap/cmd"

func main() {
	cmd.Execute()
}
