package telemetry

import (
	"fmt"
	"html/template"

	channerics "github.com/niceyeti/channerics/channels"
)

// StepView renders the single current-step/object-count line at the top
// of the dashboard, the same one-element-per-view granularity the teacher
// uses for its smallest views.
type StepView struct {
	id      string
	updates <-chan []EleUpdate
}

// NewStepView wires snapshots into the step-counter update.
func NewStepView(done <-chan struct{}, snapshots <-chan Snapshot) *StepView {
	sv := &StepView{id: template.HTMLEscapeString("step")}
	sv.updates = channerics.Convert(done, snapshots, sv.onUpdate)
	return sv
}

func (sv *StepView) onUpdate(snap Snapshot) []EleUpdate {
	return []EleUpdate{{
		EleID: "step-counter",
		Ops: []Op{
			{Key: "textContent", Value: fmt.Sprintf("step %d, %d objects", snap.Step, snap.Objects)},
		},
	}}
}

// Updates returns the ele-update stream for this view.
func (sv *StepView) Updates() <-chan []EleUpdate {
	return sv.updates
}

// Parse registers the step-counter fragment under the parent template.
func (sv *StepView) Parse(parent *template.Template) (string, error) {
	name := "stepview"
	spec := `
	{{ define "` + name + `" }}
	<div id="step-counter">step 0</div>
	{{ end }}
	`
	if _, err := parent.Parse(spec); err != nil {
		return "", err
	}
	return name, nil
}
