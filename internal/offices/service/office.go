package service

import (
	"context"
	"errors"

	officeserrors "deskbook/internal/offices/errors"
	"deskbook/internal/offices/repository"
	"deskbook/internal/offices/validator"
	"deskbook/pkg/cache"
	"deskbook/pkg/cdc"
	"deskbook/pkg/config"
	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/model"
	"deskbook/pkg/sanitizer"
)

type OfficeService interface {
	List(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Office, error)
	GetByID(ctx context.Context, id string) (*model.Office, error)
	Create(ctx context.Context, callerID string, office *model.Office) error
	SetAvailability(ctx context.Context, callerID, id string, available bool) error
	Remove(ctx context.Context, callerID, id string) error
	Cached() []*model.Office
}

type officeService struct {
	repo      repository.OfficeRepository
	validator *validator.OfficeValidator
	changes   *cdc.Publisher
	listings  *cache.List[*model.Office]
	cfg       *config.Config
}

func NewOfficeService(
	repo repository.OfficeRepository,
	validator *validator.OfficeValidator,
	changes *cdc.Publisher,
	cfg *config.Config,
) OfficeService {
	return &officeService{
		repo:      repo,
		validator: validator,
		changes:   changes,
		listings:  cache.NewList[*model.Office](),
		cfg:       cfg,
	}
}

// List refetches offices newest-first and replaces the cached sequence.
// There is no subscription on listings; explicit refetch is the only way
// the cache moves. The public catalog is paged; an owner's own listings
// are returned whole.
func (s *officeService) List(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Office, error) {
	var offices []*model.Office
	var err error

	if ownerID == "" {
		offices, err = s.repo.FindAll(ctx, config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset))
	} else {
		offices, err = s.repo.FindByOwner(ctx, ownerID)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list offices", "owner_id", ownerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve offices", err)
	}

	s.listings.Replace(offices)
	return offices, nil
}

func (s *officeService) GetByID(ctx context.Context, id string) (*model.Office, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Office ID cannot be empty")
	}

	office, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, officeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Office", id)
		}
		if errors.Is(err, officeserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid office ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve office", err)
	}

	return office, nil
}

// Create inserts a new listing. Booking count, availability, and images are
// server-assigned regardless of what the caller sent.
func (s *officeService) Create(ctx context.Context, callerID string, office *model.Office) error {
	office.OwnerID = callerID
	office.BookingCount = 0
	office.IsAvailable = true
	office.Images = []string{}

	s.sanitize(office)
	if err := s.validator.Validate(office); err != nil {
		s.cfg.Log.Warn("Office validation failed", "error", err)
		return apperrors.Validation("Office validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Insert(ctx, office); err != nil {
		s.cfg.Log.Error("Failed to create office", "owner_id", callerID, "error", err)
		return apperrors.Internal("Failed to create office", err)
	}

	s.listings.Prepend(office)
	s.publish(ctx, cdc.EventInsert, office)

	s.cfg.Log.Info("Office created",
		"id", office.ID,
		"owner_id", office.OwnerID,
		"title", office.Title,
	)
	return nil
}

// SetAvailability writes the flag remotely, then patches the cached copy so
// the change is visible without a refetch.
func (s *officeService) SetAvailability(ctx context.Context, callerID, id string, available bool) error {
	if err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.repo.UpdateAvailability(ctx, id, available); err != nil {
		if errors.Is(err, officeserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Office", id)
		}
		if errors.Is(err, officeserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid office ID format")
		}
		s.cfg.Log.Error("Failed to update office availability", "id", id, "error", err)
		return apperrors.Internal("Failed to update office availability", err)
	}

	var patched *model.Office
	s.listings.Patch(id, func(office *model.Office) *model.Office {
		copied := *office
		copied.IsAvailable = available
		patched = &copied
		return &copied
	})
	if patched != nil {
		s.publish(ctx, cdc.EventUpdate, patched)
	}

	s.cfg.Log.Info("Office availability updated", "id", id, "is_available", available)
	return nil
}

// Remove deletes the listing remotely, then filters it out of the cache.
func (s *officeService) Remove(ctx context.Context, callerID, id string) error {
	office, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if office.OwnerID != callerID {
		return apperrors.Forbidden("Office belongs to another account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, officeserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Office", id)
		}
		s.cfg.Log.Error("Failed to delete office", "id", id, "error", err)
		return apperrors.Internal("Failed to delete office", err)
	}

	s.listings.Remove(id)
	s.publish(ctx, cdc.EventDelete, office)

	s.cfg.Log.Info("Office deleted", "id", id)
	return nil
}

// Cached exposes the current cached listing sequence.
func (s *officeService) Cached() []*model.Office {
	return s.listings.Snapshot()
}

// --- Helpers ---

func (s *officeService) authorize(ctx context.Context, callerID, id string) error {
	office, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if office.OwnerID != callerID {
		return apperrors.Forbidden("Office belongs to another account")
	}
	return nil
}

func (s *officeService) sanitize(office *model.Office) {
	office.Title = sanitizer.NormalizeTitle(office.Title)
	office.Description = sanitizer.TrimAndNormalize(office.Description)
	office.Location = sanitizer.NormalizeLocation(office.Location)
	office.Amenities = sanitizer.NormalizeAmenities(office.Amenities)
}

func (s *officeService) publish(ctx context.Context, eventType string, office *model.Office) {
	if s.changes == nil {
		return
	}

	ev, err := cdc.NewChangeEvent(cdc.TableOffices, eventType, office.ID, office)
	if err != nil {
		s.cfg.Log.Error("Failed to build office change event", "id", office.ID, "error", err)
		return
	}
	if err := s.changes.Publish(ctx, ev); err != nil {
		s.cfg.Log.Error("Failed to publish office change event", "id", office.ID, "error", err)
	}
}
