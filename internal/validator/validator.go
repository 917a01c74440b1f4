// Package validator guards configuration files and JSON reports with an
// embedded CUE schema. Data that does not match is rejected with the CUE
// error instead of being silently misread.
package validator

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pkg/errors"
)

//go:embed schema.cue
var schemaSource []byte

// Definitions in schema.cue.
const (
	ConfigDef = "#Config"
	ReportDef = "#Report"
)

// Validator checks data against the embedded schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource)
	if schema.Err() != nil {
		return nil, errors.Wrap(schema.Err(), "compiling schema")
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// ValidateConfigJSON checks a configuration document (already converted to JSON).
func (v *Validator) ValidateConfigJSON(jsonBytes []byte) error {
	return v.validateJSON(jsonBytes, ConfigDef)
}

// ValidateConfig checks a configuration value.
func (v *Validator) ValidateConfig(data interface{}) error {
	return v.validate(data, ConfigDef)
}

// ValidateReport checks a report before it is printed.
func (v *Validator) ValidateReport(data interface{}) error {
	return v.validate(data, ReportDef)
}

func (v *Validator) validate(data interface{}, def string) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshaling data to JSON")
	}
	return v.validateJSON(jsonBytes, def)
}

func (v *Validator) validateJSON(jsonBytes []byte, def string) error {
	unified, err := v.unify(jsonBytes, def)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return errors.Wrapf(err, "%s validation failed", def)
	}
	return nil
}

func (v *Validator) unify(jsonBytes []byte, def string) (cue.Value, error) {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return cue.Value{}, errors.Wrap(dataValue.Err(), "compiling data as CUE")
	}

	defValue := v.schema.LookupPath(cue.ParsePath(def))
	if defValue.Err() != nil {
		return cue.Value{}, errors.Wrapf(defValue.Err(), "looking up %s definition", def)
	}

	return defValue.Unify(dataValue), nil
}

// ValidationErrors returns every schema error for data against def, one per line.
func (v *Validator) ValidationErrors(data interface{}, def string) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}

	unified, err := v.unify(jsonBytes, def)
	if err != nil {
		return []string{err.Error()}
	}

	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range cueerrors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}
