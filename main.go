package main

import "github.com/dickon/multigit/cmd"

func main() {
	cmd.Execute()
}
