package main

import "github.com/OpenTraceLab/OpenTraceIGES/cmd/otiges/cmd"

func main() {
	cmd.Execute()
}
