package main

import "github.com/vibast-solutions/ms-go-slots/cmd"

func main() {
	cmd.Execute()
}
