package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"swap-exec/cmd"
)

func main() {
	// .env is optional; config can come from the environment or yaml file
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
