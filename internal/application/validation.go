package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	schemav "github.com/santhosh-tekuri/jsonschema/v6"
)

// validator holds one compiled schema per tool. Schemas are compiled with
// additionalProperties set to false, so unknown argument names are rejected
// even though the model is never shown that constraint.
type validator struct {
	compiler *schemav.Compiler
	schemas  map[ToolName]*schemav.Schema
}

func newValidator() *validator {
	return &validator{
		compiler: schemav.NewCompiler(),
		schemas:  make(map[ToolName]*schemav.Schema),
	}
}

func (v *validator) add(name ToolName, params map[string]any) error {
	doc := make(map[string]any, len(params)+1)
	for k, val := range params {
		doc[k] = val
	}
	doc["additionalProperties"] = false

	// The compiler wants plain JSON values, so round-trip the document.
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}

	url := "mem://tools/" + string(name) + ".json"
	if err := v.compiler.AddResource(url, generic); err != nil {
		return err
	}
	sch, err := v.compiler.Compile(url)
	if err != nil {
		return err
	}
	v.schemas[name] = sch
	return nil
}

func (v *validator) validate(name ToolName, instance any) error {
	sch, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("no schema for %s", name)
	}
	return sch.Validate(instance)
}

// parseInstance decodes one JSON value, keeping numbers as json.Number so
// the validator sees them unrounded.
func parseInstance(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after arguments object")
	}
	return v, nil
}

func integerArg(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%s is not an integer", n)
	}
	return int64(f), nil
}
