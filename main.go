package main

import "github.com/fileops/notifyd/cmd"

func main() {
	cmd.Execute()
}
