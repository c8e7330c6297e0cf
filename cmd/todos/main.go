// Command todos serves and administers the multi-list todo manager.
package main

import (
	"os"

	"github.com/roach88/todos/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
