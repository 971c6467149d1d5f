package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// ValidationError is a schema violation.
type ValidationError struct {
	Path    string // dotted path of the offending field, e.g. "logging.level"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid config: " + e.Message
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Path, e.Message)
}

// Validate checks c against the embedded CUE schema, then checks that
// the search section builds a usable mapping and resolver config. The
// first problem is returned as a *ValidationError.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	val := ctx.Encode(c)
	if err := val.Err(); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return firstViolation(err)
	}

	if _, err := c.Search.ResolveConfig(); err != nil {
		return &ValidationError{Path: "search", Message: err.Error()}
	}
	if _, err := c.Search.TagMissPolicy(); err != nil {
		return &ValidationError{Path: "search.tag_miss", Message: err.Error()}
	}
	if _, err := c.Search.Mapping(); err != nil {
		return &ValidationError{Path: "search", Message: err.Error()}
	}
	return nil
}

func firstViolation(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]
	path := first.Path()
	if len(path) > 0 && path[0] == "#Config" {
		path = path[1:]
	}
	format, args := first.Msg()
	return &ValidationError{
		Path:    strings.Join(path, "."),
		Message: fmt.Sprintf(format, args...),
	}
}
