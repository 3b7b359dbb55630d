package ontevent

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/wtsi-npg/npg-notifications/internal/porch"
	"github.com/wtsi-npg/npg-notifications/internal/warehouse"
)

// GridION has slots 1-5, PromethION 1-24.
const (
	minInstrumentSlot = 1
	maxInstrumentSlot = 24
)

//go:embed email_template.txt
var emailTemplateText string

var emailTemplate = template.Must(template.New("ont-event-email").Parse(emailTemplateText))

// ContactEmail is the task input for one run event email. The run path
// is part of the task identity: the same run reported under two paths
// is two tasks and two emails, which is intended because the email
// tells the contacts where the data live.
type ContactEmail struct {
	ExperimentName string
	InstrumentSlot int
	FlowcellID     string
	Path           string
	Event          EventType
}

// Validate checks that every required field is present and in range.
func (t ContactEmail) Validate() error {
	if t.ExperimentName == "" {
		return fmt.Errorf("%w: experiment_name is required", porch.ErrValidation)
	}
	if t.InstrumentSlot < minInstrumentSlot || t.InstrumentSlot > maxInstrumentSlot {
		return fmt.Errorf("%w: instrument_slot must be between %d and %d, got %d",
			porch.ErrValidation, minInstrumentSlot, maxInstrumentSlot, t.InstrumentSlot)
	}
	if t.FlowcellID == "" {
		return fmt.Errorf("%w: flowcell_id is required", porch.ErrValidation)
	}
	if t.Path == "" {
		return fmt.Errorf("%w: path is required", porch.ErrValidation)
	}
	if _, err := ParseEvent(string(t.Event)); err != nil {
		return fmt.Errorf("%w: %v", porch.ErrValidation, err)
	}
	return nil
}

// Subject returns the subject line of the email.
func (t ContactEmail) Subject() string {
	return fmt.Sprintf("Update: ONT run %s flowcell %s has been %s",
		t.ExperimentName, t.FlowcellID, t.Event)
}

// Body renders the email body for the studies associated with the run.
func (t ContactEmail) Body(studies []warehouse.Study, domain string) (string, error) {
	if domain == "" {
		return "", fmt.Errorf("mail domain is required to render the email body")
	}

	descriptions := make([]string, len(studies))
	for i, study := range studies {
		descriptions[i] = fmt.Sprintf("%s (%s)", study.IDStudyLims, study.Name)
	}

	var builder strings.Builder
	err := emailTemplate.Execute(&builder, map[string]any{
		"ExperimentName": t.ExperimentName,
		"FlowcellID":     t.FlowcellID,
		"Path":           t.Path,
		"Event":          string(t.Event),
		"Studies":        strings.Join(descriptions, "\n"),
		"Domain":         domain,
	})
	if err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return builder.String(), nil
}

func (t ContactEmail) String() string {
	return fmt.Sprintf("<ONT experiment: %s instrument slot: %d flowcell ID: %s event: %s>",
		t.ExperimentName, t.InstrumentSlot, t.FlowcellID, t.Event)
}

// Codec converts ContactEmail tasks to and from Porch payloads. It is
// the codec bound to the pipeline client at construction.
type Codec struct{}

var _ porch.Codec[ContactEmail] = Codec{}

// Encode returns the wire payload for a contact email task.
func (Codec) Encode(input ContactEmail) (porch.Payload, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return porch.Payload{
		"experiment_name": input.ExperimentName,
		"instrument_slot": input.InstrumentSlot,
		"flowcell_id":     input.FlowcellID,
		"path":            input.Path,
		"event":           string(input.Event),
	}, nil
}

// Decode reconstructs a contact email task from a wire payload.
func (Codec) Decode(payload porch.Payload) (ContactEmail, error) {
	experiment, err := stringField(payload, "experiment_name")
	if err != nil {
		return ContactEmail{}, err
	}
	slot, err := intField(payload, "instrument_slot")
	if err != nil {
		return ContactEmail{}, err
	}
	flowcell, err := stringField(payload, "flowcell_id")
	if err != nil {
		return ContactEmail{}, err
	}
	path, err := stringField(payload, "path")
	if err != nil {
		return ContactEmail{}, err
	}
	eventValue, err := stringField(payload, "event")
	if err != nil {
		return ContactEmail{}, err
	}
	event, err := ParseEvent(eventValue)
	if err != nil {
		return ContactEmail{}, fmt.Errorf("%w: %v", porch.ErrValidation, err)
	}

	task := ContactEmail{
		ExperimentName: experiment,
		InstrumentSlot: slot,
		FlowcellID:     flowcell,
		Path:           path,
		Event:          event,
	}
	if err := task.Validate(); err != nil {
		return ContactEmail{}, err
	}
	return task, nil
}

func stringField(payload porch.Payload, name string) (string, error) {
	raw, ok := payload[name]
	if !ok {
		return "", fmt.Errorf("%w: field %s is absent", porch.ErrValidation, name)
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: field %s must be a non-empty string", porch.ErrValidation, name)
	}
	return value, nil
}

func intField(payload porch.Payload, name string) (int, error) {
	raw, ok := payload[name]
	if !ok {
		return 0, fmt.Errorf("%w: field %s is absent", porch.ErrValidation, name)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: field %s must be an integer", porch.ErrValidation, name)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: field %s must be an integer", porch.ErrValidation, name)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: field %s must be an integer", porch.ErrValidation, name)
	}
}
