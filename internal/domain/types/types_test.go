package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/claimmix/internal/domain/severity"
	types "github.com/okian/claimmix/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecomposition_JSON(t *testing.T) {
	Convey("Given a decomposition record", t, func() {
		d := types.Decomposition{
			ID:         "abc",
			ComputedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Result: severity.Result{
				BaselineAvgSeverity:   100,
				ComparisonAvgSeverity: 110,
				TotalChange:           10,
				SeverityEffect:        7,
				MixEffect:             3,
			},
		}

		Convey("When encoding to JSON", func() {
			raw, err := json.Marshal(d)
			So(err, ShouldBeNil)

			var m map[string]any
			So(json.Unmarshal(raw, &m), ShouldBeNil)

			Convey("Then the result fields are flattened into the record", func() {
				So(m["baseline_avg_severity"], ShouldEqual, 100.0)
				So(m["comparison_avg_severity"], ShouldEqual, 110.0)
				So(m["total_change"], ShouldEqual, 10.0)
				So(m["severity_effect"], ShouldEqual, 7.0)
				So(m["mix_effect"], ShouldEqual, 3.0)
				So(m["id"], ShouldEqual, "abc")
			})

			Convey("And paths are omitted when not requested", func() {
				So(m, ShouldNotContainKey, "paths")
			})
		})
	})
}

func TestPair_JSON(t *testing.T) {
	Convey("Given a JSON array-of-objects pair", t, func() {
		raw := `{"baseline":[{"category":"A","volume":2,"severity":10}],"comparison":[{"category":"A","volume":3,"severity":12}]}`

		Convey("When decoding", func() {
			var p types.Pair
			err := json.Unmarshal([]byte(raw), &p)

			Convey("Then both periods are populated", func() {
				So(err, ShouldBeNil)
				So(p.Baseline, ShouldHaveLength, 1)
				So(p.Comparison[0], ShouldResemble, severity.Bucket{Category: "A", Volume: 3, Severity: 12})
			})
		})
	})
}
