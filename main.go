package main

import "github.com/driftkv/driftkv/cmd"

func main() {
	cmd.Execute()
}
