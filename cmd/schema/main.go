// Command schema emits the JSON schema for the newspulse YAML config,
// handy for validating config files and for editor completion.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/kaitech/newspulse/pkg/config"
)

func main() {
	out := flag.String("out", "schema.json", `output file, "-" for stdout`)
	flag.Parse()

	schema := jsonschema.Reflect(&config.Config{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal schema: %v", err)
	}
	data = append(data, '\n')

	if *out == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Fatalf("failed to write schema: %v", err)
		}
		return
	}

	if err := os.WriteFile(*out, data, 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		log.Fatalf("failed to write %s: %v", *out, err)
	}
	log.Printf("schema written to %s", *out)
}
