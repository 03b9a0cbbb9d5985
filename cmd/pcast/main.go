package main

import (
	"os"

	"github.com/bnema/persona-cast/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; variables may come from the shell.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
