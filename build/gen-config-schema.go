//go:build ignore

// gen-config-schema writes the JSON schema of the resctl configuration file,
// reflected from internal/config.Root.
package main

import (
	"log"
	"os"

	"github.com/resctl/resctl/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s OUTPUT.json", os.Args[0])
	}
	bs, err := config.ReflectSchema()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(os.Args[1], append(bs, '\n'), 0o644); err != nil {
		log.Fatal(err)
	}
}
