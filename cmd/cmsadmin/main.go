package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-cms-admin/cmd/cmsadmin/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "cmsadmin:", err)
		os.Exit(1)
	}
}
