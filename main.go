package main

import "github.com/crystaldolphin/miniagents/cmd"

func main() {
	cmd.Execute()
}
