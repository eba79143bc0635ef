// bundlint lints a web-asset source tree with external linters and hands
// it to an external bundler, with an optional watch mode.
package main

import (
	"os"

	"github.com/hupe1980/bundlint/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
