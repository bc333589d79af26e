// Command actionweave inspects action manifests: it validates declarations,
// renders the compiled orchestration graph and shows the tools offered at a
// node.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
