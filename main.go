package main

import "github.com/alejoacosta74/bitfinex-ws/cmd"

func main() {
	cmd.Execute()
}
