//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search runs a live search against ClinicalTrials.gov with the condition
// from CONDITION (default "asthma").
func Search() error {
	mg.Deps(Build)
	condition := os.Getenv("CONDITION")
	if condition == "" {
		condition = "asthma"
	}
	return sh.RunV(filepath.Join(binDir, binName), "search", "--condition", condition, "--max-results", "10")
}

// Serve builds the binary and runs the HTTP API on :8080.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}
