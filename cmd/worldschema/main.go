// Command worldschema writes JSON schemas for the YAML data files so editors
// can validate entities.yaml, routes.yaml and clips.yaml.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/l1jgo/worldsim/internal/data"
)

type schemaFile struct {
	name        string
	title       string
	description string
	value       any
}

var schemaFiles = []schemaFile{
	{"entities.schema.json", "worldsim entities", "Entities spawned at startup, in tick order", new(data.EntityFile)},
	{"routes.schema.json", "worldsim routes", "Named waypoint lists for move_along and patrol", new(data.RouteFile)},
	{"clips.schema.json", "worldsim audio clips", "Audio clips playable by play_audio", new(data.ClipFile)},
}

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "schema", "directory to write the JSON schemas to")
	flag.Parse()

	for _, f := range schemaFiles {
		path := filepath.Join(outDir, f.name)
		if err := writeSchema(path, buildSchema(f)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func buildSchema(f schemaFile) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(f.value)
	schema.Title = f.title
	schema.Description = f.description
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
