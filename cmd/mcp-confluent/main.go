// Package main is the entry point for the mcp-confluent server.
package main

import (
	"os"

	"github.com/confluentinc/mcp-confluent-sub000/cmd/mcp-confluent/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
