package main

import "github.com/lifeplan/projection-engine/cmd"

func main() {
	cmd.Execute()
}
