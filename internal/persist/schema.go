package persist

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed state.schema.json
var stateSchemaJSON string

var stateSchema = mustCompileSchema(stateSchemaJSON)

func mustCompileSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("persist: compile state schema: %v", err))
	}
	return s
}

// ShapeError lists every schema violation found in a raw state.
type ShapeError struct {
	Problems []string
}

func (e *ShapeError) Error() string {
	return "state shape: " + strings.Join(e.Problems, "; ")
}

// Unwrap lets errors.Is(err, ErrCorrupt) match shape failures.
func (e *ShapeError) Unwrap() error { return ErrCorrupt }

// CheckShape validates a raw (already migrated) state against the embedded
// JSON Schema.
func CheckShape(raw map[string]any) error {
	res, err := stateSchema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: schema: %v", ErrCorrupt, err)
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		problems = append(problems, re.String())
	}
	return &ShapeError{Problems: problems}
}
