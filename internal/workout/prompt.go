/*
Package workout holds the form model of the plan generator and turns a
validated request into the instruction sent to the language model.
*/
package workout

import (
	"fmt"
	"strings"
)

/* =================================================================================
						PROMPT TEMPLATE
=================================================================================*/

// PlanSections are the headings every generated plan must cover, in order.
var PlanSections = []string{
	"Exercises",
	"Sets and reps",
	"Rest times",
	"4-week progression",
	"Warm-up and cool-down",
	"Recovery",
	"Nutrition guidance",
}

/*
PlanPromptTemplate is the instruction sent as the single user message.
Placeholders, in order: frequency, experience, goal, equipment list,
numbered section checklist.
*/
const PlanPromptTemplate = `Create a %d-day workout plan for a %s individual aiming for %s.
Available equipment: %s.

The plan must include:
%s
Format the plan with a clear heading for each training day.`

// BuildPrompt formats the request into the model instruction. It is a pure
// function of its input.
func BuildPrompt(req Request) string {
	var checklist strings.Builder
	for i, section := range PlanSections {
		fmt.Fprintf(&checklist, "%d. %s\n", i+1, section)
	}

	return fmt.Sprintf(
		PlanPromptTemplate,
		req.Frequency,
		req.Experience,
		req.Goal,
		strings.Join(req.Equipment, ", "),
		checklist.String(),
	)
}
