// Package main is the entry point of the capacityctl CLI.
package main

import "os"

func main() {
	os.Exit(Run())
}
