package stageflow

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"pms/bizerror"

	"github.com/fundwit/go-commons/types"
)

// FieldValues is the candidate value of each project field under validation,
// keyed by the configured field name.
type FieldValues map[string]interface{}

// Policy answers stage flow questions from the loaded configuration.
// It never mutates data: every check returns the full violation list.
type Policy struct {
	config *StageFlowConfig
	index  map[string]int
}

var ActivePolicy *Policy

func Bootstrap() error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}
	ActivePolicy = NewPolicy(config)
	return nil
}

func NewPolicy(config *StageFlowConfig) *Policy {
	index := map[string]int{}
	for i, name := range config.Stages {
		index[name] = i
	}
	return &Policy{config: config, index: index}
}

func (p *Policy) Stages() []string {
	return p.config.Stages
}

func (p *Policy) FirstStage() string {
	if len(p.config.Stages) == 0 {
		return ""
	}
	return p.config.Stages[0]
}

func (p *Policy) StageIndex(name string) (int, bool) {
	idx, found := p.index[name]
	return idx, found
}

// NextStage returns the only legal successor of a stage, or "" at the end of the flow.
func (p *Policy) NextStage(from string) string {
	idx, found := p.index[from]
	if !found || idx+1 >= len(p.config.Stages) {
		return ""
	}
	return p.config.Stages[idx+1]
}

// IsLegalTransition is true for same-stage moves and single forward hops.
// A stage name outside the configured flow is a configuration error.
func (p *Policy) IsLegalTransition(fromStage, toStage string) (bool, error) {
	if fromStage == toStage {
		if _, found := p.index[fromStage]; !found {
			return false, &bizerror.ErrUnknownStage{Stage: fromStage}
		}
		return true, nil
	}
	fromIdx, fromFound := p.index[fromStage]
	toIdx, toFound := p.index[toStage]
	if !fromFound {
		return false, &bizerror.ErrUnknownStage{Stage: fromStage}
	}
	if !toFound {
		return false, &bizerror.ErrUnknownStage{Stage: toStage}
	}
	return toIdx == fromIdx+1, nil
}

// CheckTransition aggregates the violations of a stage move the way the update
// validator reports them. Same-stage moves yield no violations.
func (p *Policy) CheckTransition(fromStage, toStage string) []bizerror.FieldViolation {
	violations := []bizerror.FieldViolation{}
	if fromStage == toStage {
		return violations
	}

	fromIdx, fromFound := p.index[fromStage]
	_, toFound := p.index[toStage]
	if !fromFound || !toFound {
		violations = append(violations, bizerror.FieldViolation{
			Field: "current_stage_id", Message: "Invalid stage detected in workflow definition."})
		return violations
	}

	if legal, _ := p.IsLegalTransition(fromStage, toStage); !legal {
		next := "N/A"
		if fromIdx+1 < len(p.config.Stages) {
			next = p.config.Stages[fromIdx+1]
		}
		violations = append(violations, bizerror.FieldViolation{
			Field:   "current_stage_id",
			Message: fmt.Sprintf("Invalid stage transition. Allowed next stage after %s is %s.", fromStage, next)})
	}
	return violations
}

// closing stages end the project lifecycle and close out its approval run.
var closingStages = map[string]bool{"Completion": true, "Divestment": true}

func (p *Policy) IsClosingStage(name string) bool {
	return closingStages[name]
}

// RequireReasonForAdvance a change reason is mandatory whenever the stage changes.
func (p *Policy) RequireReasonForAdvance(fromStage, toStage string) bool {
	return fromStage != toStage
}

// MissingFieldsFor reports every required field of the stage whose candidate
// value is absent. Nil, empty string and zero (numeric or "0") all count as
// absent: a foreign key of 0 is an unset reference, not a value.
func (p *Policy) MissingFieldsFor(stageName string, values FieldValues) []bizerror.FieldViolation {
	violations := []bizerror.FieldViolation{}
	for _, field := range p.config.RequiredFields[stageName] {
		if IsMissingValue(values[field]) {
			violations = append(violations, bizerror.FieldViolation{
				Field:   field,
				Message: fmt.Sprintf("The %s is required for %s stage.", p.FieldLabel(field), stageName)})
		}
	}
	return violations
}

func (p *Policy) FieldLabel(field string) string {
	if label, found := p.config.FieldLabels[field]; found {
		return label
	}
	return strings.ReplaceAll(field, "_", " ")
}

// MergeValues layers submitted values over stored ones: a submitted field wins
// even when its value is explicit null, an omitted field keeps the stored value.
func MergeValues(submitted, stored FieldValues) FieldValues {
	merged := FieldValues{}
	for k, v := range stored {
		merged[k] = v
	}
	for k, v := range submitted {
		merged[k] = v
	}
	return merged
}

func IsMissingValue(v interface{}) bool {
	if v == nil {
		return true
	}
	switch value := v.(type) {
	case string:
		return value == "" || value == "0"
	case float64:
		return value == 0
	case float32:
		return value == 0
	case int:
		return value == 0
	case int64:
		return value == 0
	case uint64:
		return value == 0
	case types.ID:
		return value == 0
	case json.Number:
		return value.String() == "0" || value.String() == ""
	case types.Timestamp:
		return value.Time().IsZero()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return true
		}
		return IsMissingValue(rv.Elem().Interface())
	}
	return false
}
