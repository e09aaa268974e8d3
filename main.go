package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/giygas/vetref-api/cli"
	"github.com/joho/godotenv"
)

func main() {
	loadEnv()
	cli.Execute()
}

// loadEnv reads .env from the working directory, then from the directory
// of the executable. A missing file is fine: every setting has a default.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}
	envPath := filepath.Join(filepath.Dir(ex), ".env")
	if _, err := os.Stat(envPath); err != nil {
		return
	}
	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envPath, err)
	}
}
