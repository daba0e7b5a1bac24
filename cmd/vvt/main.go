// Package main is the entry point for the vvt CLI client.
package main

import "github.com/gavincooper/vehicle-valuator/cmd/vvt/cmd"

func main() {
	cmd.Execute()
}
