package analysis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/2beens/coachai/internal/apperrors"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var resultSchema = mustCompileSchema(schemaJSON)

func mustCompileSchema(raw []byte) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile analysis result schema: %s", err))
	}
	return schema
}

// Verdict is the outcome of validating an untrusted analysis payload:
// either Valid or Invalid, never both.
type Verdict interface {
	verdict()
}

type Valid struct {
	Result Result
}

// Invalid names the first failing field, ordered by validation phase.
type Invalid struct {
	Field  string
	Reason string
}

func (Valid) verdict()   {}
func (Invalid) verdict() {}

func (i Invalid) Err() *apperrors.ValidationError {
	return apperrors.NewValidationError(i.Field, i.Reason)
}

// rootField is how gojsonschema names the document root
const rootField = "(root)"

// validation phases, lower runs first
const (
	phaseStructure = iota + 1
	phaseBounds
	phaseEnum
)

// Validate checks a raw payload against the embedded result schema.
// Failures are reported in phase order: missing groups and malformed structure first,
// then numeric bounds, then the severity enumeration.
func Validate(raw []byte) Verdict {
	res, err := resultSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Invalid{Reason: fmt.Sprintf("malformed payload: %s", err)}
	}

	if !res.Valid() {
		return firstFailure(res.Errors())
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Invalid{Reason: fmt.Sprintf("decode payload: %s", err)}
	}

	return Valid{Result: result}
}

// ValidateResult runs an already typed result through the same schema checks.
// Groups cannot be missing from a typed value, so only bounds and enums can fail here.
func ValidateResult(r Result) Verdict {
	raw, err := json.Marshal(r.normalized())
	if err != nil {
		return Invalid{Reason: fmt.Sprintf("encode result: %s", err)}
	}
	return Validate(raw)
}

func firstFailure(errs []gojsonschema.ResultError) Invalid {
	if len(errs) == 0 {
		return Invalid{Reason: "invalid payload"}
	}

	sorted := make([]gojsonschema.ResultError, len(errs))
	copy(sorted, errs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return phaseOf(sorted[i].Type()) < phaseOf(sorted[j].Type())
	})

	first := sorted[0]
	return Invalid{
		Field:  fieldPath(first),
		Reason: first.Description(),
	}
}

func phaseOf(errType string) int {
	switch errType {
	case "number_gte", "number_gt", "number_lte", "number_lt", "multiple_of":
		return phaseBounds
	case "enum":
		return phaseEnum
	default:
		return phaseStructure
	}
}

func fieldPath(e gojsonschema.ResultError) string {
	field := e.Field()
	if field == rootField {
		field = ""
	}

	if e.Type() != "required" {
		return field
	}

	// required errors point at the parent object, the property is in the details
	property, ok := e.Details()["property"].(string)
	if !ok || property == "" || field == property || strings.HasSuffix(field, "."+property) {
		return field
	}
	if field == "" {
		return property
	}
	return field + "." + property
}
