package telemetry

import (
	"context"
	"html/template"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
)

// Dashboard is the main page: the container for every ViewComponent and
// the wiring of their update channels into one fanned-in, rate-limited
// stream, adapted from the teacher's root_view.RootView (same
// broadcast-then-fan-in-then-batch shape, built once at construction
// rather than per-request).
type Dashboard struct {
	views   []ViewComponent
	updates <-chan []EleUpdate
}

// NewDashboard builds every dashboard view over a shared, broadcast
// snapshot stream and fans their ele-updates into one rate-limited
// channel.
func NewDashboard(ctx context.Context, snapshots <-chan Snapshot) *Dashboard {
	done := ctx.Done()
	broadcast := channerics.Broadcast(done, snapshots, 2)

	views := []ViewComponent{
		NewStepView(done, broadcast[0]),
		NewAgentsView(done, broadcast[1]),
	}

	inputs := make([]<-chan []EleUpdate, len(views))
	for i, v := range views {
		inputs[i] = v.Updates()
	}

	updates := batchify(done, channerics.Merge(done, inputs...), 20*time.Millisecond)
	return &Dashboard{views: views, updates: updates}
}

// Updates returns the dashboard-wide ele-update channel.
func (d *Dashboard) Updates() <-chan []EleUpdate {
	return d.updates
}

// Parse builds the main page template: the websocket bootstrap script
// plus every child view's fragment, nested in registration order.
// Grounded directly on root_view.RootView.Parse, including its
// client-side EleUpdate-application script, adapted to this package's
// EleID/Ops naming.
func (d *Dashboard) Parse(parent *template.Template) (string, error) {
	rt := parent.Funcs(template.FuncMap{
		"add": func(i, j int) int { return i + j },
		"sub": func(i, j int) int { return i - j },
	})

	var bodySpec string
	for _, v := range d.views {
		tname, err := v.Parse(rt)
		if err != nil {
			return "", err
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	name := "dashboard"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<script>
				const ws = new WebSocket("ws://" + window.location.host + "/ws");
				ws.onopen = function() { console.log("dashboard socket opened"); };
				ws.onerror = function(event) { console.log("dashboard socket error: ", event); };
				ws.onmessage = function(event) {
					const items = JSON.parse(event.data);
					for (const update of items) {
						const ele = document.getElementById(update.EleID);
						if (!ele) { continue; }
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value);
							}
						}
					}
				};
			</script>
		</head>
		<body>
		` + bodySpec + `
		</body>
	</html>
	{{ end }}
	`
	if _, err := rt.Parse(indexTemplate); err != nil {
		return "", err
	}
	return name, nil
}

// batchify collects ele-updates within rate, keeping only the latest per
// element id, and emits a batch once rate has elapsed since the last
// send, checking on every incoming update and on a ticker of period rate.
// Adapted from root_view.batchify.
func batchify(done <-chan struct{}, source <-chan []EleUpdate, rate time.Duration) <-chan []EleUpdate {
	out := make(chan []EleUpdate)
	go func() {
		defer close(out)
		pending := map[string]EleUpdate{}
		last := time.Now()
		in := channerics.OrDone(done, source)
		flush := time.NewTicker(rate)
		defer flush.Stop()
		for {
			var updates []EleUpdate
			var ok bool
			select {
			case updates, ok = <-in:
				if !ok {
					return
				}
			case <-flush.C:
			}
			for _, u := range updates {
				pending[u.EleID] = u
			}
			if time.Since(last) > rate && len(pending) > 0 {
				batch := make([]EleUpdate, 0, len(pending))
				for _, u := range pending {
					batch = append(batch, u)
				}
				select {
				case out <- batch:
					pending = map[string]EleUpdate{}
					last = time.Now()
				case <-done:
					return
				}
			}
		}
	}()
	return out
}
