package feed

import (
	"context"
	"testing"

	"deskbook/internal/bookings/service"
	"deskbook/pkg/cdc"
	cdc_config "deskbook/pkg/cdc/config"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

var (
	_ service.RequesterService = (*stubRequesterService)(nil)
	_ service.OwnerService     = (*stubOwnerService)(nil)
)

type stubRequesterService struct {
	merged []*model.Booking
	accept bool
}

func (s *stubRequesterService) List(ctx context.Context, requesterID string) ([]*model.Booking, error) {
	return nil, nil
}

func (s *stubRequesterService) Create(ctx context.Context, requesterID string, req *model.BookingRequest) (*model.Booking, error) {
	return nil, nil
}

func (s *stubRequesterService) Cancel(ctx context.Context, requesterID, bookingID string) error {
	return nil
}

func (s *stubRequesterService) MergeRemote(booking *model.Booking) bool {
	s.merged = append(s.merged, booking)
	return s.accept
}

func (s *stubRequesterService) Cached() []*model.Booking {
	return nil
}

type stubOwnerService struct {
	refreshes int
	err       error
}

func (s *stubOwnerService) ListByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error) {
	return nil, nil
}

func (s *stubOwnerService) UpdateStatus(ctx context.Context, ownerID, bookingID, status string) error {
	return nil
}

func (s *stubOwnerService) Refresh(ctx context.Context) error {
	s.refreshes++
	return s.err
}

func (s *stubOwnerService) Cached() []*model.Booking {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func feedConfig() *cdc_config.Config {
	cfg := cdc_config.Load()
	cfg.Brokers = []string{"localhost:9092"}
	return cfg
}

func bookingEvent(t *testing.T, eventType string, booking *model.Booking) cdc.ChangeEvent {
	t.Helper()
	ev, err := cdc.NewChangeEvent(cdc.TableBookings, eventType, booking.ID, booking)
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	return ev
}

func TestRequesterFeed_HandsDecodedRowToService(t *testing.T) {
	stub := &stubRequesterService{accept: true}
	feed, err := NewRequesterFeed(feedConfig(), stub, "test-group", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer feed.Close()

	booking := &model.Booking{
		ID:     "64f000000000000000000020",
		UserID: "64f0000000000000000000cc",
		Status: model.StatusConfirmed,
	}
	if err := feed.handleEvent(bookingEvent(t, cdc.EventUpdate, booking)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stub.merged) != 1 {
		t.Fatalf("expected 1 merge, got %d", len(stub.merged))
	}
	if stub.merged[0].ID != booking.ID || stub.merged[0].Status != model.StatusConfirmed {
		t.Errorf("merged row does not match event row: %+v", stub.merged[0])
	}
}

func TestRequesterFeed_UndecodableRowSkipped(t *testing.T) {
	stub := &stubRequesterService{}
	feed, err := NewRequesterFeed(feedConfig(), stub, "test-group", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer feed.Close()

	ev := cdc.ChangeEvent{
		ID:    "ev-1",
		Table: cdc.TableBookings,
		Type:  cdc.EventUpdate,
		RowID: "64f000000000000000000020",
		Row:   []byte(`{"status":`),
	}
	if err := feed.handleEvent(ev); err != nil {
		t.Fatalf("expected undecodable row to be skipped, got: %v", err)
	}
	if len(stub.merged) != 0 {
		t.Errorf("expected no merges, got %d", len(stub.merged))
	}
}

func TestOwnerFeed_RefreshesOnEveryEventType(t *testing.T) {
	stub := &stubOwnerService{}
	feed, err := NewOwnerFeed(feedConfig(), stub, "test-group", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer feed.Close()

	booking := &model.Booking{ID: "64f000000000000000000020"}
	for _, eventType := range []string{cdc.EventInsert, cdc.EventUpdate, cdc.EventDelete} {
		if err := feed.handleEvent(bookingEvent(t, eventType, booking)); err != nil {
			t.Fatalf("unexpected error for %s: %v", eventType, err)
		}
	}

	if stub.refreshes != 3 {
		t.Errorf("expected 3 refreshes, got %d", stub.refreshes)
	}
}

func TestFeedClose_Idempotent(t *testing.T) {
	feed, err := NewOwnerFeed(feedConfig(), &stubOwnerService{}, "test-group", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := feed.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := feed.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}
