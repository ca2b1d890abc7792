package workout

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	MinFrequency = 1
	MaxFrequency = 7
)

// Goals lists the training goals offered by the form, in display order.
var Goals = []string{
	"Fat Loss",
	"Muscle Gain",
	"Strength",
	"Endurance",
	"General Fitness",
}

// ExperienceLevels lists the experience options, in display order.
var ExperienceLevels = []string{
	"Beginner",
	"Intermediate",
	"Advanced",
}

// EquipmentOptions is the fixed equipment vocabulary.
var EquipmentOptions = []string{
	"Bodyweight Only",
	"Dumbbells",
	"Barbell",
	"Kettlebells",
	"Resistance Bands",
	"Pull-up Bar",
	"Full Gym",
}

// NoEquipmentWarning is the message shown when the equipment selection is empty.
const NoEquipmentWarning = "Please select at least one equipment option."

// ErrNoEquipment is returned when a submission carries no equipment.
var ErrNoEquipment = errors.New("no equipment selected")

// ValidationError describes a form field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Request holds the validated form fields for one plan generation.
type Request struct {
	Goal       string
	Experience string
	Frequency  int
	Equipment  []string
}

// DefaultRequest returns the values the form is pre-filled with.
func DefaultRequest() Request {
	return Request{
		Goal:       Goals[0],
		Experience: ExperienceLevels[0],
		Frequency:  3,
	}
}

// Validate checks every field against the fixed vocabularies. An empty
// equipment selection yields ErrNoEquipment so callers can show it as a
// warning rather than an error.
func (r Request) Validate() error {
	if !slices.Contains(Goals, r.Goal) {
		return &ValidationError{Field: "goal", Reason: fmt.Sprintf("%q is not a known goal", r.Goal)}
	}
	if !slices.Contains(ExperienceLevels, r.Experience) {
		return &ValidationError{Field: "experience", Reason: fmt.Sprintf("%q is not a known level", r.Experience)}
	}
	if r.Frequency < MinFrequency || r.Frequency > MaxFrequency {
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("must be between %d and %d", MinFrequency, MaxFrequency)}
	}
	if len(r.Equipment) == 0 {
		return ErrNoEquipment
	}
	for _, item := range r.Equipment {
		if !slices.Contains(EquipmentOptions, item) {
			return &ValidationError{Field: "equipment", Reason: fmt.Sprintf("%q is not a known option", item)}
		}
	}
	return nil
}

// ParseForm builds a Request from submitted form values and validates it.
// The returned Request is populated even on error so the form can be
// re-rendered with the user's selections.
func ParseForm(values url.Values) (Request, error) {
	req := Request{
		Goal:       strings.TrimSpace(values.Get("goal")),
		Experience: strings.TrimSpace(values.Get("experience")),
	}

	// Multi-select submits one value per option; duplicates are dropped.
	for _, item := range values["equipment"] {
		item = strings.TrimSpace(item)
		if item != "" && !slices.Contains(req.Equipment, item) {
			req.Equipment = append(req.Equipment, item)
		}
	}

	raw := strings.TrimSpace(values.Get("frequency"))
	freq, err := strconv.Atoi(raw)
	if err != nil {
		return req, &ValidationError{Field: "frequency", Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	req.Frequency = freq

	return req, req.Validate()
}
