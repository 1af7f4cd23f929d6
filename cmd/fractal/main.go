package main

import "github.com/OpenTraceLab/OpenFractal/cmd/fractal/cmd"

func main() {
	cmd.Execute()
}
