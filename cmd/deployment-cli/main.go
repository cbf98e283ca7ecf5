package main

import "github.com/navikt/deployment-cli/pkg/cli"

func main() {
	cli.Execute()
}
