package main

import "github.com/ringkeeper/gossipcore/cmd"

func main() {
	cmd.Execute()
}
