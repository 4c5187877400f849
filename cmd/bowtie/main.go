// cmd/bowtie/main.go
package main

import (
	"shardalign/internal/appshell"
	"shardalign/internal/bowtieapp"
)

func main() { appshell.Main(bowtieapp.RunContext) }
