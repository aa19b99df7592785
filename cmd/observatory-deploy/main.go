package main

import (
	"fmt"
	"os"

	"github.com/hochfrequenz/observatory-deploy/internal/dispatch"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(dispatch.ExitCode(err))
	}
}
