package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/ppiankov/factsift/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
