// Package main is the entry point for the dcx application
package main

import (
	"github.com/nexadash/dcx/cmd"

	_ "github.com/microsoft/go-mssqldb"
)

func main() {
	cmd.Execute()
}
