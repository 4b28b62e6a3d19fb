package main

import (
	"github.com/memvault/memvault/internal/cli"
	"github.com/memvault/memvault/internal/util"
)

func main() {
	if err := cli.Execute(); err != nil {
		util.HandleError(err, "")
	}
}
