// cmd/blastplus/main.go
package main

import (
	"shardalign/internal/appshell"
	"shardalign/internal/blastapp"
)

func main() { appshell.Main(blastapp.RunContext) }
