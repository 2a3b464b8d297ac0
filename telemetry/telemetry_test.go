package telemetry

import (
	"context"
	"html/template"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/grid"
)

func TestDashboardFansInViewUpdates(t *testing.T) {
	Convey("Given a dashboard fed by a snapshot stream", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		snapshots := make(chan Snapshot, 1)
		dash := NewDashboard(ctx, snapshots)

		snapshots <- Snapshot{
			Step: 3,
			Agents: []AgentSnapshot{
				{Idx: 0, Location: grid.GridLocation{Row: 1, Col: 2}, Reward: 0.5, Episode: 1.5},
			},
			Objects: 4,
		}

		Convey("an ele-update batch eventually arrives carrying both views' elements", func() {
			select {
			case batch := <-dash.Updates():
				ids := map[string]bool{}
				for _, u := range batch {
					ids[u.EleID] = true
				}
				So(len(batch) > 0, ShouldBeTrue)
				So(ids["step-counter"], ShouldBeTrue)
				So(ids["agent-0"], ShouldBeTrue)
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for dashboard update")
			}
		})
	})
}

func TestDashboardParseProducesValidTemplate(t *testing.T) {
	Convey("Given a dashboard", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		dash := NewDashboard(ctx, make(chan Snapshot))

		Convey("Parse registers a template without error", func() {
			name, err := dash.Parse(template.New("root"))
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "dashboard")
		})
	})
}
