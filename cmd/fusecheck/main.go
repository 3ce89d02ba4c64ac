package main

import "github.com/OpenTraceLab/OpenTraceFuse/cmd/fusecheck/cmd"

func main() {
	cmd.Execute()
}
