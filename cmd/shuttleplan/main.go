package main

import "github.com/transitops/shuttleplan-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
