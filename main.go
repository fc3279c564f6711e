package main

import "ircbot/cmd"

func main() {
	cmd.Execute()
}
