package stats

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStatsTrackerIDEquality(t *testing.T) {
	Convey("Given a fresh tracker", t, func() {
		tr := NewTracker()

		Convey("Add (by name) and AddByID (pre-resolved) land on the same cell", func() {
			id := tr.ResolveID("action.invalid_index")
			tr.Add("action.invalid_index", 1)
			tr.AddByID(id, 2)
			So(tr.Get("action.invalid_index"), ShouldEqual, 3)
			So(tr.GetByID(id), ShouldEqual, 3)
		})

		Convey("addition is commutative regardless of accumulation order", func() {
			tr.Add("x", 1)
			tr.Add("y", 10)
			tr.Add("x", 2)
			So(tr.Get("x"), ShouldEqual, 3)
			So(tr.Get("y"), ShouldEqual, 10)

			other := NewTracker()
			other.Add("x", 2)
			other.Add("y", 10)
			other.Add("x", 1)
			So(other.Get("x"), ShouldEqual, tr.Get("x"))
			So(other.Get("y"), ShouldEqual, tr.Get("y"))
		})

		Convey("Reset zeroes values but keeps ids stable", func() {
			id := tr.ResolveID("hp")
			tr.AddByID(id, 5)
			tr.Reset()
			So(tr.GetByID(id), ShouldEqual, 0)
			So(tr.ResolveID("hp"), ShouldEqual, id)
		})
	})
}
