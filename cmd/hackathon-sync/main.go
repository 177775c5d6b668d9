package main

import "hackathon-sync/internal/cli"

func main() {
	cli.Execute()
}
