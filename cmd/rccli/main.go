package main

import (
	"github.com/robotalks/rcinput/pkg/cli/sh"
	"github.com/robotalks/rcinput/pkg/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
