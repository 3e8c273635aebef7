// Package main is the entry point for the Mindnoscape application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mindnoscape/workbook/internal/cli"
)

func main() {
	// Readline handles Ctrl+C itself; SIGTERM ends the process.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived termination signal. Shutting down...")
		os.Exit(1)
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
