package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veloway/rider-tracking/internal/core/domain"
	"github.com/veloway/rider-tracking/internal/core/ports"
)

type stubIngestService struct {
	ingestFn     func(ctx context.Context, in ports.PingInput) (*ports.IngestResult, error)
	deactivateFn func(ctx context.Context, pingID string) error
}

func (s *stubIngestService) Ingest(ctx context.Context, in ports.PingInput) (*ports.IngestResult, error) {
	return s.ingestFn(ctx, in)
}

func (s *stubIngestService) Deactivate(ctx context.Context, pingID string) error {
	return s.deactivateFn(ctx, pingID)
}

type stubDispatcher struct {
	enqueued []ports.PingInput
}

func (d *stubDispatcher) Enqueue(in ports.PingInput) {
	d.enqueued = append(d.enqueued, in)
}

func (d *stubDispatcher) EnqueueBatch(ins []ports.PingInput) {
	d.enqueued = append(d.enqueued, ins...)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestPingHandler_Ingest_Success(t *testing.T) {
	e := newEcho()
	stub := &stubIngestService{
		ingestFn: func(_ context.Context, in ports.PingInput) (*ports.IngestResult, error) {
			if in.RiderID != "rider_1" || in.Latitude != 19.43 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.IngestResult{
				ID:        "ping_abc",
				RiderID:   in.RiderID,
				Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
				Geohash:   "9g3w81u1m",
			}, nil
		},
	}
	h := NewPingHandler(stub, &stubDispatcher{}, 5*time.Minute)

	body := strings.NewReader(`{"rider_id":"rider_1","latitude":19.43,"longitude":-99.13,"speed":8.5,"heading":270}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/pings", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Ingest(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "ping_abc" || resp["rider_id"] != "rider_1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestPingHandler_Ingest_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubIngestService{
		ingestFn: func(context.Context, ports.PingInput) (*ports.IngestResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	h := NewPingHandler(stub, &stubDispatcher{}, 5*time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/v1/pings", strings.NewReader("not-json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Ingest(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestPingHandler_Ingest_OutOfRangeLatitudeRejectedAtEdge(t *testing.T) {
	e := newEcho()
	stub := &stubIngestService{
		ingestFn: func(context.Context, ports.PingInput) (*ports.IngestResult, error) {
			t.Fatal("service must not be called for an out-of-range coordinate")
			return nil, nil
		},
	}
	h := NewPingHandler(stub, &stubDispatcher{}, 5*time.Minute)

	body := strings.NewReader(`{"rider_id":"rider_1","latitude":91,"longitude":0}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/pings", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Ingest(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 HTTPError, got %v", err)
	}
}

func TestPingHandler_Ingest_ServiceErrorPropagates(t *testing.T) {
	e := newEcho()
	wantErr := &domain.ValidationError{Field: "timestamp", Reason: "too far in the future"}
	stub := &stubIngestService{
		ingestFn: func(context.Context, ports.PingInput) (*ports.IngestResult, error) {
			return nil, wantErr
		},
	}
	h := NewPingHandler(stub, &stubDispatcher{}, 5*time.Minute)

	body := strings.NewReader(`{"rider_id":"rider_1","latitude":1,"longitude":1}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/pings", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Ingest(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected domain validation error to propagate, got %v", err)
	}
}

func TestPingHandler_IngestBatch_Success(t *testing.T) {
	e := newEcho()
	dispatcher := &stubDispatcher{}
	h := NewPingHandler(&stubIngestService{}, dispatcher, 5*time.Minute)

	body := strings.NewReader(`[
		{"rider_id":"rider_1","latitude":1,"longitude":1},
		{"rider_id":"rider_2","latitude":2,"longitude":2}
	]`)
	req := httptest.NewRequest(http.MethodPost, "/v1/pings/batch", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.IngestBatch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(dispatcher.enqueued) != 2 {
		t.Fatalf("expected 2 enqueued pings, got %d", len(dispatcher.enqueued))
	}
	if dispatcher.enqueued[0].RiderID != "rider_1" || dispatcher.enqueued[1].RiderID != "rider_2" {
		t.Fatalf("batch order must be preserved: %+v", dispatcher.enqueued)
	}
}

func TestPingHandler_IngestBatch_Empty(t *testing.T) {
	e := newEcho()
	h := NewPingHandler(&stubIngestService{}, &stubDispatcher{}, 5*time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/v1/pings/batch", strings.NewReader(`[]`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.IngestBatch(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestPingHandler_IngestBatch_InvalidElement(t *testing.T) {
	e := newEcho()
	dispatcher := &stubDispatcher{}
	h := NewPingHandler(&stubIngestService{}, dispatcher, 5*time.Minute)

	body := strings.NewReader(`[
		{"rider_id":"rider_1","latitude":1,"longitude":1},
		{"rider_id":"","latitude":1,"longitude":1}
	]`)
	req := httptest.NewRequest(http.MethodPost, "/v1/pings/batch", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.IngestBatch(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 HTTPError, got %v", err)
	}
	if len(dispatcher.enqueued) != 0 {
		t.Error("nothing may be enqueued when any batch element is invalid")
	}
}

func TestPingHandler_IngestBatch_FarFutureTimestampRejected(t *testing.T) {
	e := newEcho()
	dispatcher := &stubDispatcher{}
	h := NewPingHandler(&stubIngestService{}, dispatcher, 5*time.Minute)

	future := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	body := strings.NewReader(fmt.Sprintf(`[
		{"rider_id":"rider_1","latitude":1,"longitude":1},
		{"rider_id":"rider_2","latitude":2,"longitude":2,"timestamp":%q}
	]`, future))
	req := httptest.NewRequest(http.MethodPost, "/v1/pings/batch", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.IngestBatch(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 HTTPError for far-future timestamp, got %v", err)
	}
	if len(dispatcher.enqueued) != 0 {
		t.Error("nothing may be enqueued when a batch element fails the skew check")
	}
}

func TestPingHandler_IngestBatch_TimestampWithinSkewAccepted(t *testing.T) {
	e := newEcho()
	dispatcher := &stubDispatcher{}
	h := NewPingHandler(&stubIngestService{}, dispatcher, 5*time.Minute)

	soon := time.Now().UTC().Add(2 * time.Minute).Format(time.RFC3339)
	body := strings.NewReader(fmt.Sprintf(`[{"rider_id":"rider_1","latitude":1,"longitude":1,"timestamp":%q}]`, soon))
	req := httptest.NewRequest(http.MethodPost, "/v1/pings/batch", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.IngestBatch(c); err != nil {
		t.Fatalf("timestamp within skew must be accepted: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(dispatcher.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued ping, got %d", len(dispatcher.enqueued))
	}
}

func TestPingHandler_Deactivate_Success(t *testing.T) {
	e := newEcho()
	stub := &stubIngestService{
		deactivateFn: func(_ context.Context, pingID string) error {
			if pingID != "ping_abc" {
				t.Fatalf("unexpected id: %s", pingID)
			}
			return nil
		},
	}
	h := NewPingHandler(stub, &stubDispatcher{}, 5*time.Minute)

	req := httptest.NewRequest(http.MethodDelete, "/v1/pings/ping_abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("ping_abc")

	if err := h.Deactivate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestPingHandler_Deactivate_NotFound(t *testing.T) {
	e := newEcho()
	stub := &stubIngestService{
		deactivateFn: func(context.Context, string) error {
			return domain.ErrPingNotFound
		},
	}
	h := NewPingHandler(stub, &stubDispatcher{}, 5*time.Minute)

	req := httptest.NewRequest(http.MethodDelete, "/v1/pings/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nope")

	if err := h.Deactivate(c); !errors.Is(err, domain.ErrPingNotFound) {
		t.Fatalf("expected ErrPingNotFound to propagate, got %v", err)
	}
}
