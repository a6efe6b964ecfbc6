package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/pupitre/internal/db"
	"github.com/javiermolinar/pupitre/internal/server"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "://nope"} {
		if _, err := New(raw); err == nil {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}

func TestClient_AgainstServer(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	periods, err := c.ListPeriods(ctx)
	if err != nil {
		t.Fatalf("ListPeriods failed: %v", err)
	}
	if len(periods) != 6 {
		t.Errorf("expected 6 periods, got %d", len(periods))
	}

	res, err := c.ListResources(ctx)
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(res.Teachers) == 0 || len(res.Classes) == 0 {
		t.Errorf("expected seeded resources, got %+v", res)
	}

	slots, err := c.GetTimetable(ctx, 1)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected seeded slots")
	}

	replaced, err := c.ReplaceSlots(ctx, 3, []timetable.SlotPayload{{
		DayOfWeek:   timetable.Saturday,
		PeriodID:    periods[0].ID,
		ForClassID:  3,
		ForCourseID: timetable.Int64Ptr(1),
	}})
	if err != nil {
		t.Fatalf("ReplaceSlots failed: %v", err)
	}
	if len(replaced) != 1 {
		t.Errorf("expected 1 slot, got %d", len(replaced))
	}

	if err := c.Optimize(ctx, 1); err != nil {
		t.Errorf("Optimize failed: %v", err)
	}
}

func TestClient_SlotCRUD(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	p := timetable.SlotPayload{DayOfWeek: timetable.Saturday, PeriodID: 2, ForClassID: 2}
	created, err := c.CreateSlot(ctx, p)
	if err != nil {
		t.Fatalf("CreateSlot failed: %v", err)
	}

	desc := "moved"
	p.Description = &desc
	updated, err := c.UpdateSlot(ctx, created.ID, p)
	if err != nil {
		t.Fatalf("UpdateSlot failed: %v", err)
	}
	if updated.Description != desc {
		t.Errorf("expected description %q, got %q", desc, updated.Description)
	}

	if err := c.DeleteSlot(ctx, created.ID); err != nil {
		t.Fatalf("DeleteSlot failed: %v", err)
	}
	if err := c.DeleteSlot(ctx, created.ID); !errors.Is(err, timetable.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_ConflictMapping(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	slots, err := c.GetTimetable(ctx, 1)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	busy := slots[0]

	_, err = c.ReplaceSlots(ctx, 3, []timetable.SlotPayload{{
		DayOfWeek:  busy.DayOfWeek,
		PeriodID:   busy.Period.ID,
		ForClassID: 3,
		RoomID:     timetable.Int64Ptr(timetable.RefID(busy.Room)),
	}})

	var cerr *timetable.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if cerr.Dimension != timetable.ConflictRoom {
		t.Errorf("expected room conflict, got %q", cerr.Dimension)
	}
	if !timetable.IsRetryable(err) {
		t.Error("conflicts should be retryable")
	}
}

func TestClient_ValidationMapping(t *testing.T) {
	c := newTestClient(t)

	_, err := c.CreateSlot(context.Background(), timetable.SlotPayload{DayOfWeek: timetable.Sunday, PeriodID: 1, ForClassID: 1})

	var verr *timetable.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestClient_NetworkErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = c.GetTimetable(context.Background(), 1)

	var netErr *timetable.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError for a 503, got %v", err)
	}
	if netErr.Op != "fetch timetable" {
		t.Errorf("expected op %q, got %q", "fetch timetable", netErr.Op)
	}

	ts.Close()
	if _, err := c.ListPeriods(context.Background()); !errors.As(err, &netErr) {
		t.Errorf("expected NetworkError for a closed server, got %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	done := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(done)

	c, err := New(ts.URL, WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := c.Optimize(context.Background(), 1); !timetable.IsRetryable(err) {
		t.Errorf("expected a retryable timeout, got %v", err)
	}
}

func TestClient_SendsRequestID(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	c, _ := New(ts.URL)
	if err := c.Optimize(context.Background(), 1); err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if got == "" {
		t.Error("expected a request id header")
	}
}

func TestDecodeEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id":1,"dayOfWeek":"MONDAY","periodId":3}]`},
		{"slots key", `{"slots":[{"id":1,"dayOfWeek":"MONDAY","period":{"id":3}}]}`},
		{"data key", `{"data":[{"id":1,"dayOfWeek":"monday","periodId":3}]}`},
		{"nested data", `{"data":{"slots":[{"id":1,"dayOfWeek":"MONDAY","periodId":3}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slots []timetable.Slot
			if err := listInto(&slots, "slots")([]byte(tt.body)); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if len(slots) != 1 || slots[0].Period.ID != 3 || slots[0].DayOfWeek != timetable.Monday {
				t.Errorf("unexpected slots: %+v", slots)
			}
		})
	}

	var slots []timetable.Slot
	if err := listInto(&slots, "slots")([]byte(`{"items":[]}`)); err == nil {
		t.Error("expected missing key to fail")
	}
}

func TestStatusError(t *testing.T) {
	err := statusError("save timetable", http.StatusConflict, []byte(`{"error":"conflict","message":"Ada is busy"}`))
	var cerr *timetable.ConflictError
	if !errors.As(err, &cerr) || cerr.Message != "Ada is busy" {
		t.Errorf("expected conflict with message, got %v", err)
	}

	err = statusError("save timetable", http.StatusForbidden, nil)
	if timetable.IsRetryable(err) {
		t.Errorf("403 should not be retryable, got %v", err)
	}
}

// Helper functions

func newTestClient(t *testing.T) *Client {
	t.Helper()

	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	ts := httptest.NewServer(server.New(store, nil).Router())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}
