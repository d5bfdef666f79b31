package main

import "github.com/yukawa/avatarbridge/cmd/avatarbridge/cmd"

func main() {
	cmd.Execute()
}
