package main

import (
	"Go2FlowID/cmd/flowid/command"
	"os"
)

func main() {
	if err := command.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
