// Command tilawah is the offline-first client: reading positions,
// bookmarks, hifz reviews and cloud sync from the terminal.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/heartmarshall/tilawah/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
