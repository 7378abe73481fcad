package service

import (
	"context"
	"testing"

	officeserrors "deskbook/internal/offices/errors"
	"deskbook/internal/offices/validator"
	"deskbook/pkg/config"
	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

// ────────────────────────────────────────────────
// Mock repository
// ────────────────────────────────────────────────

type mockOfficeRepository struct {
	insertFunc             func(ctx context.Context, office *model.Office) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Office, error)
	findAllFunc            func(ctx context.Context) ([]*model.Office, error)
	findByOwnerFunc        func(ctx context.Context, ownerID string) ([]*model.Office, error)
	updateAvailabilityFunc func(ctx context.Context, id string, available bool) error

	findAllCalls int
}

func (m *mockOfficeRepository) Insert(ctx context.Context, office *model.Office) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, office)
	}
	office.ID = "64f000000000000000000010"
	return nil
}

func (m *mockOfficeRepository) FindByID(ctx context.Context, id string) (*model.Office, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, officeserrors.ErrNotFound
}

func (m *mockOfficeRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Office, error) {
	m.findAllCalls++
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx)
	}
	return []*model.Office{}, nil
}

func (m *mockOfficeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*model.Office, error) {
	if m.findByOwnerFunc != nil {
		return m.findByOwnerFunc(ctx, ownerID)
	}
	return []*model.Office{}, nil
}

func (m *mockOfficeRepository) FindIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	return nil, nil
}

func (m *mockOfficeRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	if m.updateAvailabilityFunc != nil {
		return m.updateAvailabilityFunc(ctx, id, available)
	}
	return nil
}

func (m *mockOfficeRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockOfficeRepository) IncrementBookingCount(ctx context.Context, id string) error {
	return nil
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
	}
}

func newTestService(repo *mockOfficeRepository) OfficeService {
	cfg := testConfig()
	return NewOfficeService(repo, validator.NewOfficeValidator(cfg.Log), nil, cfg)
}

func validOffice() *model.Office {
	return &model.Office{
		Title:        "Corner Desk Loft",
		Description:  "Bright corner loft with standing desks",
		Location:     "Portland, OR",
		PricePerHour: 12,
		PricePerDay:  80,
		Amenities:    []string{"WiFi", "Coffee", "wifi"},
	}
}

const ownerID = "64f0000000000000000000aa"

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_ForcesServerAssignedFields(t *testing.T) {
	svc := newTestService(&mockOfficeRepository{})

	office := validOffice()
	office.BookingCount = 42
	office.IsAvailable = false
	office.Images = []string{"https://example.com/sneaky.jpg"}

	if err := svc.Create(context.Background(), ownerID, office); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if office.BookingCount != 0 {
		t.Errorf("expected booking_count 0, got %d", office.BookingCount)
	}
	if !office.IsAvailable {
		t.Error("expected is_available true")
	}
	if len(office.Images) != 0 {
		t.Errorf("expected empty images, got %v", office.Images)
	}
	if office.OwnerID != ownerID {
		t.Errorf("expected owner_id %s, got %s", ownerID, office.OwnerID)
	}
}

func TestCreate_NormalizesAmenities(t *testing.T) {
	svc := newTestService(&mockOfficeRepository{})

	office := validOffice()
	if err := svc.Create(context.Background(), ownerID, office); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(office.Amenities) != 2 {
		t.Fatalf("expected deduplicated amenities, got %v", office.Amenities)
	}
	if office.Amenities[0] != "wifi" || office.Amenities[1] != "coffee" {
		t.Errorf("expected lowercased amenities in first-seen order, got %v", office.Amenities)
	}
}

func TestCreate_InvalidPriceRejected(t *testing.T) {
	inserts := 0
	repo := &mockOfficeRepository{
		insertFunc: func(ctx context.Context, office *model.Office) error {
			inserts++
			return nil
		},
	}
	svc := newTestService(repo)

	office := validOffice()
	office.PricePerHour = 0

	err := svc.Create(context.Background(), ownerID, office)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if inserts != 0 {
		t.Errorf("expected no inserts, got %d", inserts)
	}
}

func TestCreate_PrependsToCache(t *testing.T) {
	svc := newTestService(&mockOfficeRepository{})

	first := validOffice()
	if err := svc.Create(context.Background(), ownerID, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := validOffice()
	second.Title = "Window Bay Studio"
	if err := svc.Create(context.Background(), ownerID, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cached := svc.Cached()
	if len(cached) != 2 {
		t.Fatalf("expected 2 cached offices, got %d", len(cached))
	}
	if cached[0].Title != "Window Bay Studio" {
		t.Errorf("expected newest office first, got %q", cached[0].Title)
	}
}

// ────────────────────────────────────────────────
// SetAvailability
// ────────────────────────────────────────────────

func TestSetAvailability_PatchesCacheWithoutRefetch(t *testing.T) {
	office := &model.Office{
		ID:          "64f000000000000000000010",
		OwnerID:     ownerID,
		IsAvailable: true,
	}
	repo := &mockOfficeRepository{
		findByOwnerFunc: func(ctx context.Context, id string) ([]*model.Office, error) {
			return []*model.Office{office}, nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Office, error) {
			return office, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.List(context.Background(), ownerID, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetAvailability(context.Background(), ownerID, office.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cached := svc.Cached()
	if len(cached) != 1 {
		t.Fatalf("expected 1 cached office, got %d", len(cached))
	}
	if cached[0].IsAvailable {
		t.Error("expected cached office to reflect availability change")
	}
	if repo.findAllCalls != 0 {
		t.Errorf("expected no refetch, FindAll called %d times", repo.findAllCalls)
	}
}

func TestSetAvailability_OtherOwnersOfficeForbidden(t *testing.T) {
	repo := &mockOfficeRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Office, error) {
			return &model.Office{ID: id, OwnerID: "64f0000000000000000000bb"}, nil
		},
	}
	svc := newTestService(repo)

	err := svc.SetAvailability(context.Background(), ownerID, "64f000000000000000000010", false)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", appErr.Code)
	}
}

// ────────────────────────────────────────────────
// Remove
// ────────────────────────────────────────────────

func TestRemove_FiltersCache(t *testing.T) {
	office := &model.Office{ID: "64f000000000000000000010", OwnerID: ownerID}
	repo := &mockOfficeRepository{
		findByOwnerFunc: func(ctx context.Context, id string) ([]*model.Office, error) {
			return []*model.Office{office}, nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Office, error) {
			return office, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.List(context.Background(), ownerID, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Remove(context.Background(), ownerID, office.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(svc.Cached()); got != 0 {
		t.Errorf("expected empty cache after remove, got %d entries", got)
	}
}
