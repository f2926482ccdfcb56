package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuscogo/huntd/internal/adapters/http/api"
	repository "github.com/cuscogo/huntd/internal/adapters/repository"
	"github.com/cuscogo/huntd/internal/app"
	"github.com/cuscogo/huntd/internal/domain/catalog"
	"github.com/cuscogo/huntd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementation of the handler dependencies.
type mockService struct {
	captures    map[int64]model.Capture
	bonuses     map[int64][]model.BonusEvent
	nextID      int64
	award       model.BonusAward
	recordErr   error
	internalErr error
}

func newMockService() *mockService {
	return &mockService{
		captures: make(map[int64]model.Capture),
		bonuses:  make(map[int64][]model.BonusEvent),
	}
}

func (m *mockService) RecordCapture(ctx context.Context, in app.CaptureInput) (model.Capture, model.BonusAward, error) {
	if m.recordErr != nil {
		return model.Capture{}, model.BonusAward{}, m.recordErr
	}
	m.nextID++
	c := model.Capture{ID: m.nextID, ItemID: in.ItemID, Latitude: in.Latitude, Longitude: in.Longitude}
	m.captures[c.ID] = c
	return c, m.award, nil
}

func (m *mockService) DeleteCapture(ctx context.Context, id int64) error {
	if _, ok := m.captures[id]; !ok {
		return fmt.Errorf("%w: capture %d", repository.ErrNotFound, id)
	}
	delete(m.captures, id)
	return nil
}

func (m *mockService) Captures(ctx context.Context, f repository.CaptureFilter) ([]model.Capture, error) {
	if m.internalErr != nil {
		return nil, m.internalErr
	}
	out := make([]model.Capture, 0, len(m.captures))
	for _, c := range m.captures {
		if f.ItemID != "" && c.ItemID != f.ItemID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockService) BonusesForCapture(ctx context.Context, captureID int64) ([]model.BonusEvent, error) {
	return m.bonuses[captureID], nil
}

func (m *mockService) AllBonuses(ctx context.Context) ([]model.BonusEvent, error) {
	var out []model.BonusEvent
	for _, evs := range m.bonuses {
		out = append(out, evs...)
	}
	return out, nil
}

func (m *mockService) CircleBiomes() []catalog.Biome {
	return []catalog.Biome{
		{ID: "citadel", Label: "Citadel", Kind: catalog.KindCircle, RadiusMeters: 600, Multiplier: 2.0},
	}
}

func (m *mockService) Items() []catalog.Item {
	return []catalog.Item{
		{ID: "condor", Title: "Andean Condor", BasePoints: 25},
	}
}

func (m *mockService) LatestCaptureForItem(ctx context.Context, itemID string) (model.Capture, error) {
	if itemID != "condor" {
		return model.Capture{}, fmt.Errorf("%w: %s", app.ErrUnknownItem, itemID)
	}
	var latest model.Capture
	for _, c := range m.captures {
		if c.ItemID == itemID && c.ID > latest.ID {
			latest = c
		}
	}
	if latest.ID == 0 {
		return model.Capture{}, fmt.Errorf("%w: item %s", repository.ErrNotFound, itemID)
	}
	return latest, nil
}

func (m *mockService) TotalScore(ctx context.Context) (model.ScoreSummary, error) {
	if m.internalErr != nil {
		return model.ScoreSummary{}, m.internalErr
	}
	return model.ScoreSummary{BasePoints: 35, BonusPoints: 25, Total: 60, UniqueItems: 2}, nil
}

func (m *mockService) GetStats() map[string]any {
	return map[string]any{"started": true}
}

func newTestServer(m *mockService) *http.ServeMux {
	mux := http.NewServeMux()
	server := api.NewServer(m, m)
	server.Register(context.Background(), mux)
	return mux
}

func TestPostCapture(t *testing.T) {
	Convey("Given the API over a mock service", t, func() {
		m := newMockService()
		m.award = model.BonusAward{Awarded: true, BonusPoints: 25, BiomeLabel: "Citadel", Multiplier: 2.0}
		mux := newTestServer(m)

		Convey("When posting a valid capture", func() {
			body := `{"item_id":"condor","latitude":-13.163141,"longitude":-72.544963}`
			req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 201 with the capture and the award", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var resp struct {
					Capture model.Capture    `json:"capture"`
					Bonus   model.BonusAward `json:"bonus"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Capture.ID, ShouldEqual, 1)
				So(resp.Bonus.Awarded, ShouldBeTrue)
				So(resp.Bonus.BonusPoints, ShouldEqual, 25)
			})
		})

		Convey("When posting a capture without coordinates", func() {
			body := `{"item_id":"condor"}`
			req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it is accepted; missing location is a normal case", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
			})
		})

		Convey("When posting malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader("{nope"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting without an item id", func() {
			req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(`{}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting only one coordinate", func() {
			body := `{"item_id":"condor","latitude":-13.163141}`
			req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting an out-of-range latitude", func() {
			body := `{"item_id":"condor","latitude":123.0,"longitude":0.0}`
			req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the item is unknown", func() {
			m.recordErr = fmt.Errorf("%w: unicorn", app.ErrUnknownItem)
			body := `{"item_id":"unicorn"}`
			req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 400 with the unknown_item code", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "unknown_item")
			})
		})
	})
}

func TestCaptureByID(t *testing.T) {
	Convey("Given the API over a mock service with one capture", t, func() {
		m := newMockService()
		mux := newTestServer(m)

		req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(`{"item_id":"condor"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		So(rec.Code, ShouldEqual, http.StatusCreated)

		m.bonuses[1] = []model.BonusEvent{
			{ID: 1, CaptureID: 1, BiomeID: "citadel", BonusPoints: 25},
		}

		Convey("When deleting the capture", func() {
			req := httptest.NewRequest(http.MethodDelete, "/captures/1", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 200", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(len(m.captures), ShouldEqual, 0)
			})
		})

		Convey("When deleting a capture that does not exist", func() {
			req := httptest.NewRequest(http.MethodDelete, "/captures/99", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When fetching the capture's bonuses", func() {
			req := httptest.NewRequest(http.MethodGet, "/captures/1/bonuses", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the ledger rows come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var events []model.BonusEvent
				So(json.Unmarshal(rec.Body.Bytes(), &events), ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(events[0].BiomeID, ShouldEqual, "citadel")
			})
		})

		Convey("When the capture id is not a number", func() {
			req := httptest.NewRequest(http.MethodDelete, "/captures/abc", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestItemLatestCapture(t *testing.T) {
	Convey("Given the API over a mock service", t, func() {
		m := newMockService()
		mux := newTestServer(m)

		Convey("When the item has been captured more than once", func() {
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(`{"item_id":"condor"}`))
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusCreated)
			}

			req := httptest.NewRequest(http.MethodGet, "/items/condor/capture", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the newest capture comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var c model.Capture
				So(json.Unmarshal(rec.Body.Bytes(), &c), ShouldBeNil)
				So(c.ID, ShouldEqual, 2)
				So(c.ItemID, ShouldEqual, "condor")
			})
		})

		Convey("When the item has no captures yet", func() {
			req := httptest.NewRequest(http.MethodGet, "/items/condor/capture", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the item is unknown", func() {
			req := httptest.NewRequest(http.MethodGet, "/items/unicorn/capture", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 400 with the unknown_item code", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "unknown_item")
			})
		})

		Convey("When the subpath is not a capture lookup", func() {
			req := httptest.NewRequest(http.MethodGet, "/items/condor/bonuses", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestReadEndpoints(t *testing.T) {
	Convey("Given the API over a mock service", t, func() {
		m := newMockService()
		mux := newTestServer(m)

		Convey("When fetching the score", func() {
			req := httptest.NewRequest(http.MethodGet, "/score", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the aggregate summary comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var sum model.ScoreSummary
				So(json.Unmarshal(rec.Body.Bytes(), &sum), ShouldBeNil)
				So(sum.Total, ShouldEqual, 60)
				So(sum.UniqueItems, ShouldEqual, 2)
			})
		})

		Convey("When the score backend fails", func() {
			m.internalErr = errors.New("db gone")
			req := httptest.NewRequest(http.MethodGet, "/score", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When fetching the biomes", func() {
			req := httptest.NewRequest(http.MethodGet, "/biomes", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the circle biomes come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var biomes []catalog.Biome
				So(json.Unmarshal(rec.Body.Bytes(), &biomes), ShouldBeNil)
				So(len(biomes), ShouldEqual, 1)
				So(biomes[0].ID, ShouldEqual, "citadel")
			})
		})

		Convey("When fetching the items", func() {
			req := httptest.NewRequest(http.MethodGet, "/items", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the item catalog comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var items []catalog.Item
				So(json.Unmarshal(rec.Body.Bytes(), &items), ShouldBeNil)
				So(len(items), ShouldEqual, 1)
			})
		})

		Convey("When listing captures with a bad time filter", func() {
			req := httptest.NewRequest(http.MethodGet, "/captures?since=notanumber", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When checking health", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it reports ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "ok")
			})
		})

		Convey("When fetching metrics", func() {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the Prometheus exposition is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When fetching stats", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the service stats come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "started")
			})
		})

		Convey("When using an unsupported method", func() {
			req := httptest.NewRequest(http.MethodPut, "/score", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it returns 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
