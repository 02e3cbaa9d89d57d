package main

import "github.com/heapguard/analyzer/cmd"

func main() {
	cmd.Execute()
}
