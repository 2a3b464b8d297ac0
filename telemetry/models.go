// Package telemetry serves a single live debug dashboard over a
// GridObjects/episode-stats snapshot stream, adapted from the teacher's
// server/fastview + server/root_view + server/cell_views stack: the same
// ViewComponent/EleUpdate vocabulary, the same channerics fan-in/batching
// discipline, re-pointed at mettagrid.Environment inspection data instead
// of RL state-value grids. This is strictly an inspection surface (the
// replay/panel JSON the renderer collaborator owns is out of scope); it
// exists for "watch a running episode in a browser while developing".
package telemetry

import "html/template"

// EleUpdate names one DOM element and the attribute/content operations to
// apply to it, unchanged from the teacher's fastview.EleUpdate.
type EleUpdate struct {
	EleID string
	Ops   []Op
}

// Op is one attribute-or-textContent assignment; "textContent" is the
// reserved key meaning element.textContent, same convention the teacher's
// client-side script switches on.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is a server-rendered view: an update stream plus the
// ability to register its template fragment with a parent template.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	Parse(*template.Template) (string, error)
}
