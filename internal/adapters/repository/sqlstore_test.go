package repository_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/cuscogo/huntd/internal/adapters/notify"
	repository "github.com/cuscogo/huntd/internal/adapters/repository"
	"github.com/cuscogo/huntd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()
	store, err := repository.NewSQLStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr(v float64) *float64 { return &v }

func TestSQLStore_Captures(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := newTestStore(t)
		ctx := context.Background()

		Convey("When inserting a capture", func() {
			c := model.Capture{
				ItemID:   "condor",
				Title:    "Andean Condor",
				Latitude: ptr(-13.163141), Longitude: ptr(-72.544963),
			}
			id, err := store.InsertCapture(ctx, &c)

			Convey("Then it gets an id and a timestamp", func() {
				So(err, ShouldBeNil)
				So(id, ShouldBeGreaterThan, 0)
				So(c.CreatedAt, ShouldBeGreaterThan, 0)
			})

			Convey("And it can be fetched back", func() {
				got, err := store.GetCapture(ctx, id)
				So(err, ShouldBeNil)
				So(got.ItemID, ShouldEqual, "condor")
				So(got.Latitude, ShouldNotBeNil)
				So(*got.Latitude, ShouldAlmostEqual, -13.163141, 1e-9)
			})
		})

		Convey("When inserting a capture without coordinates", func() {
			c := model.Capture{ItemID: "llama", Title: "Llama"}
			id, err := store.InsertCapture(ctx, &c)
			So(err, ShouldBeNil)

			Convey("Then the coordinates stay null", func() {
				got, err := store.GetCapture(ctx, id)
				So(err, ShouldBeNil)
				So(got.Latitude, ShouldBeNil)
				So(got.Longitude, ShouldBeNil)
			})
		})

		Convey("When fetching a capture that does not exist", func() {
			_, err := store.GetCapture(ctx, 999)

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When deleting a capture that does not exist", func() {
			err := store.DeleteCapture(ctx, 999)

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestSQLStore_ListAndFilter(t *testing.T) {
	Convey("Given a store with captures of several items", t, func() {
		store := newTestStore(t)
		ctx := context.Background()

		inserted := []model.Capture{
			{ItemID: "condor", Title: "Andean Condor", CreatedAt: 1000},
			{ItemID: "llama", Title: "Llama", CreatedAt: 2000},
			{ItemID: "condor", Title: "Andean Condor", CreatedAt: 3000},
		}
		for i := range inserted {
			_, err := store.InsertCapture(ctx, &inserted[i])
			So(err, ShouldBeNil)
		}

		Convey("When listing without a filter", func() {
			out, err := store.ListCaptures(ctx, repository.CaptureFilter{})

			Convey("Then all captures come back newest first", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 3)
				So(out[0].CreatedAt, ShouldEqual, 3000)
				So(out[2].CreatedAt, ShouldEqual, 1000)
			})
		})

		Convey("When filtering by item", func() {
			out, err := store.ListCaptures(ctx, repository.CaptureFilter{ItemID: "condor"})

			Convey("Then only that item's captures come back", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 2)
				for _, c := range out {
					So(c.ItemID, ShouldEqual, "condor")
				}
			})
		})

		Convey("When filtering by time range", func() {
			out, err := store.ListCaptures(ctx, repository.CaptureFilter{StartMillis: 1500, EndMillis: 2500})

			Convey("Then only captures inside the range come back", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 1)
				So(out[0].ItemID, ShouldEqual, "llama")
			})
		})

		Convey("When asking for the latest capture of an item", func() {
			c, err := store.LatestCaptureForItem(ctx, "condor")

			Convey("Then the newest one comes back", func() {
				So(err, ShouldBeNil)
				So(c.CreatedAt, ShouldEqual, 3000)
			})
		})

		Convey("When asking for distinct captured item ids", func() {
			ids, err := store.DistinctCapturedItemIDs(ctx)

			Convey("Then each item appears once", func() {
				So(err, ShouldBeNil)
				So(len(ids), ShouldEqual, 2)
				So(ids, ShouldContain, "condor")
				So(ids, ShouldContain, "llama")
			})
		})
	})
}

func TestSQLStore_BonusLedger(t *testing.T) {
	Convey("Given a store with a capture", t, func() {
		store := newTestStore(t)
		ctx := context.Background()

		c := model.Capture{ItemID: "condor", Title: "Andean Condor"}
		captureID, err := store.InsertCapture(ctx, &c)
		So(err, ShouldBeNil)

		Convey("When appending bonus events", func() {
			first := model.BonusEvent{
				CaptureID: captureID, BiomeID: "citadel", BiomeLabel: "Citadel",
				Multiplier: 2.0, BonusPoints: 25, CreatedAt: 1000,
			}
			second := model.BonusEvent{
				CaptureID: captureID, BiomeID: "valley", BiomeLabel: "Valley",
				Multiplier: 1.5, BonusPoints: 12, CreatedAt: 2000,
			}
			_, err := store.AppendBonusEvent(ctx, &first)
			So(err, ShouldBeNil)
			_, err = store.AppendBonusEvent(ctx, &second)
			So(err, ShouldBeNil)

			Convey("Then the capture's events list oldest first", func() {
				events, err := store.ListBonusEventsForCapture(ctx, captureID)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)
				So(events[0].BiomeID, ShouldEqual, "citadel")
				So(events[1].BiomeID, ShouldEqual, "valley")
			})

			Convey("And the full ledger lists newest first", func() {
				events, err := store.ListAllBonusEvents(ctx)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)
				So(events[0].BiomeID, ShouldEqual, "valley")
			})

			Convey("And the snapshot fields survive as written", func() {
				events, err := store.ListBonusEventsForCapture(ctx, captureID)
				So(err, ShouldBeNil)
				So(events[0].BiomeLabel, ShouldEqual, "Citadel")
				So(events[0].Multiplier, ShouldEqual, 2.0)
				So(events[0].BonusPoints, ShouldEqual, 25)
			})
		})

		Convey("When appending an event for a capture that does not exist", func() {
			ev := model.BonusEvent{CaptureID: 999, BiomeID: "citadel", BiomeLabel: "Citadel", Multiplier: 2.0, BonusPoints: 25}
			_, err := store.AppendBonusEvent(ctx, &ev)

			Convey("Then the foreign key rejects it", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestSQLStore_CascadeDelete(t *testing.T) {
	Convey("Given a capture with bonus events and a second untouched capture", t, func() {
		store := newTestStore(t)
		ctx := context.Background()

		doomed := model.Capture{ItemID: "condor", Title: "Andean Condor"}
		doomedID, err := store.InsertCapture(ctx, &doomed)
		So(err, ShouldBeNil)

		survivor := model.Capture{ItemID: "llama", Title: "Llama"}
		survivorID, err := store.InsertCapture(ctx, &survivor)
		So(err, ShouldBeNil)

		for _, captureID := range []int64{doomedID, survivorID} {
			ev := model.BonusEvent{CaptureID: captureID, BiomeID: "citadel", BiomeLabel: "Citadel", Multiplier: 2.0, BonusPoints: 25}
			_, err := store.AppendBonusEvent(ctx, &ev)
			So(err, ShouldBeNil)
		}

		Convey("When the first capture is deleted", func() {
			So(store.DeleteCapture(ctx, doomedID), ShouldBeNil)

			Convey("Then its bonus events are gone with it", func() {
				events, err := store.ListBonusEventsForCapture(ctx, doomedID)
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
			})

			Convey("And the other capture's events survive", func() {
				events, err := store.ListBonusEventsForCapture(ctx, survivorID)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
			})

			Convey("And the full ledger only holds rows for live captures", func() {
				events, err := store.ListAllBonusEvents(ctx)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(events[0].CaptureID, ShouldEqual, survivorID)
			})
		})
	})
}

func TestSQLStore_ChangeNotifications(t *testing.T) {
	Convey("Given a store wired to a broadcaster", t, func() {
		broadcaster := notify.New()
		var notifications atomic.Int64
		broadcaster.Subscribe(func() { notifications.Add(1) })

		store, err := repository.NewSQLStore(":memory:", repository.WithBroadcaster(broadcaster))
		So(err, ShouldBeNil)
		defer store.Close()
		ctx := context.Background()

		Convey("When captures and bonus events are written and deleted", func() {
			c := model.Capture{ItemID: "condor", Title: "Andean Condor"}
			id, err := store.InsertCapture(ctx, &c)
			So(err, ShouldBeNil)

			ev := model.BonusEvent{CaptureID: id, BiomeID: "citadel", BiomeLabel: "Citadel", Multiplier: 2.0, BonusPoints: 25}
			_, err = store.AppendBonusEvent(ctx, &ev)
			So(err, ShouldBeNil)

			So(store.DeleteCapture(ctx, id), ShouldBeNil)

			Convey("Then every mutation fired a notification", func() {
				So(notifications.Load(), ShouldEqual, 3)
			})
		})

		Convey("When only reads happen", func() {
			_, err := store.ListCaptures(ctx, repository.CaptureFilter{})
			So(err, ShouldBeNil)

			Convey("Then no notification fires", func() {
				So(notifications.Load(), ShouldEqual, 0)
			})
		})
	})
}
