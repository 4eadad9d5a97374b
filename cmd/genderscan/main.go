// Package main provides the entry point for the genderscan CLI.
//
// genderscan classifies Instagram usernames by probable gender in
// resumable batches: cheap linguistic filters first, then profile
// fetches through a pool of logged-in Instagram identities, then
// Gemini classification of the fetched name and avatar.
//
// Usage:
//
//	genderscan run --input usernames.txt
//	genderscan history --totals
//
// See --help for all available options.
package main

import "github.com/joho/godotenv"

// main is the entry point for genderscan.
func main() {
	// A .env in the working directory may carry GEMINI_API_KEY. A
	// missing file is not an error.
	_ = godotenv.Load() //nolint:errcheck // optional .env
	Execute()
}
