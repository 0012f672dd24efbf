package main

import "github.com/moyu-x/image-manager/cmd"

func main() {
	cmd.Execute()
}
