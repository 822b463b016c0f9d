// Command cloudsync serves the sync backend the tilawah client pushes to
// and pulls snapshots from.
package main

import (
	"context"
	"log"

	"github.com/heartmarshall/tilawah/internal/app"
)

func main() {
	if err := app.RunServer(context.Background()); err != nil {
		log.Fatalf("cloudsync: %v", err)
	}
}
