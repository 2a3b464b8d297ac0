package telemetry

import (
	"fmt"
	"html/template"

	channerics "github.com/niceyeti/channerics/channels"
)

// AgentsView renders one table row per agent (location, last reward,
// episode total), pushing a textContent EleUpdate per row whenever a new
// Snapshot arrives. Grounded directly on cell_views.NewValueFunction's
// channerics.Convert(done, source, onUpdate) shape: an onUpdate method
// bound to a per-view id, registered once at construction.
type AgentsView struct {
	id      string
	updates <-chan []EleUpdate
}

// NewAgentsView wires snapshots into per-agent row updates.
func NewAgentsView(done <-chan struct{}, snapshots <-chan Snapshot) *AgentsView {
	av := &AgentsView{id: template.HTMLEscapeString("agents")}
	av.updates = channerics.Convert(done, snapshots, av.onUpdate)
	return av
}

func (av *AgentsView) onUpdate(snap Snapshot) []EleUpdate {
	updates := make([]EleUpdate, 0, len(snap.Agents))
	for _, a := range snap.Agents {
		updates = append(updates, EleUpdate{
			EleID: fmt.Sprintf("agent-%d", a.Idx),
			Ops: []Op{
				{Key: "textContent", Value: fmt.Sprintf("(%d,%d) r=%.3f ep=%.3f", a.Location.Row, a.Location.Col, a.Reward, a.Episode)},
			},
		})
	}
	return updates
}

// Updates returns the ele-update stream for this view.
func (av *AgentsView) Updates() <-chan []EleUpdate {
	return av.updates
}

// Parse registers this view's table fragment under the parent template,
// one row per agent present in the most recently built page load; rows
// beyond the snapshot size just never receive updates.
func (av *AgentsView) Parse(parent *template.Template) (string, error) {
	name := "agentsview"
	spec := `
	{{ define "` + name + `" }}
	<table id="agents-table">
		<tr><th>agent</th><th>state</th></tr>
		{{ range $i, $_ := . }}
		<tr><td>{{ $i }}</td><td id="agent-{{ $i }}"></td></tr>
		{{ end }}
	</table>
	{{ end }}
	`
	if _, err := parent.Parse(spec); err != nil {
		return "", err
	}
	return name, nil
}
