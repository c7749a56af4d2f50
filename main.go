package main

import "github.com/snowlift/snowlift/cmd"

func main() {
	cmd.Execute()
}
