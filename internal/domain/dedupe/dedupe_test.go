package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/cuscogo/huntd/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new in-memory deduper", t, func() {
		ctx := context.Background()

		Convey("When created with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it starts empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording a new id", func() {
			d := dedupe.NewInMemoryDeduper()
			seen := d.SeenAndRecord(ctx, "capture:1")

			Convey("Then it reports not seen and records it", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a second record of the same id reports seen", func() {
				So(d.SeenAndRecord(ctx, "capture:1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording an id", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "capture:1")
			d.Unrecord(ctx, "capture:1")

			Convey("Then the id can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "capture:1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "capture:1")
			d.Unrecord(ctx, "capture:99")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the bound is reached", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 0; i < 3; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("capture:%d", i))
			}
			d.SeenAndRecord(ctx, "capture:3")

			Convey("Then the oldest id is evicted to make room", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "capture:0"), ShouldBeFalse) // evicted, records anew
				So(d.SeenAndRecord(ctx, "capture:3"), ShouldBeTrue)  // still present
			})
		})

		Convey("When accessed concurrently", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10_000))
			var wg sync.WaitGroup
			firstSeen := make([]bool, 100)

			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					firstSeen[n] = d.SeenAndRecord(ctx, fmt.Sprintf("capture:%d", n))
				}(i)
			}
			wg.Wait()

			Convey("Then every distinct id is recorded exactly once", func() {
				So(d.Size(), ShouldEqual, 100)
				for i := 0; i < 100; i++ {
					So(firstSeen[i], ShouldBeFalse)
				}
			})
		})
	})
}
