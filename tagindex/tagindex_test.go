package tagindex

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/grid"
)

func TestTagIndexConsistency(t *testing.T) {
	Convey("Given a tag index and a registered object", t, func() {
		idx := NewIndex()
		obj := grid.NewGridObject(0, 1, grid.LayerAgent, grid.GridLocation{}, nil)
		idx.RegisterObject(obj)

		Convey("adding a tag updates both tag_bits and the bucket", func() {
			idx.OnTagAdded(obj, 3)
			So(obj.HasTag(3), ShouldBeTrue)
			So(idx.GetObjectsWithTag(3), ShouldContain, grid.ObjectID(0))
			So(idx.Count(3), ShouldEqual, uint32(1))
		})

		Convey("removing a tag clears both", func() {
			idx.OnTagAdded(obj, 3)
			idx.OnTagRemoved(obj, 3)
			So(obj.HasTag(3), ShouldBeFalse)
			So(idx.GetObjectsWithTag(3), ShouldNotContain, grid.ObjectID(0))
			So(idx.Count(3), ShouldEqual, uint32(0))
		})

		Convey("swap-removal keeps remaining members reachable", func() {
			objs := []*grid.GridObject{obj}
			for i := grid.ObjectID(1); i < 4; i++ {
				o := grid.NewGridObject(i, 1, grid.LayerAgent, grid.GridLocation{}, nil)
				idx.RegisterObject(o)
				idx.OnTagAdded(o, 7)
				objs = append(objs, o)
			}
			idx.OnTagAdded(obj, 7)

			idx.OnTagRemoved(objs[1], 7) // remove a middle element
			So(idx.Count(7), ShouldEqual, uint32(3))
			for _, o := range []*grid.GridObject{objs[0], objs[2], objs[3]} {
				So(idx.GetObjectsWithTag(7), ShouldContain, o.ID)
			}
			So(idx.GetObjectsWithTag(7), ShouldNotContain, objs[1].ID)
		})

		Convey("unregistering an object removes it from all its buckets", func() {
			idx.OnTagAdded(obj, 1)
			idx.OnTagAdded(obj, 2)
			idx.UnregisterObject(obj)
			So(idx.GetObjectsWithTag(1), ShouldNotContain, obj.ID)
			So(idx.GetObjectsWithTag(2), ShouldNotContain, obj.ID)
		})
	})
}
