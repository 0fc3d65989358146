package main

import "github.com/mxtweaks/tweakctl/internal/cli"

func main() {
	cli.Execute()
}
