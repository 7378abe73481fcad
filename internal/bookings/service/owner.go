package service

import (
	"context"
	"errors"
	"sync"

	bookingserrors "deskbook/internal/bookings/errors"
	"deskbook/internal/bookings/repository"
	"deskbook/internal/bookings/validator"
	officesrepo "deskbook/internal/offices/repository"
	"deskbook/pkg/cache"
	"deskbook/pkg/cdc"
	"deskbook/pkg/config"
	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/model"
)

// OwnerService is the booking view an owner's dashboard works against: every
// booking made against any of their offices, with office and requester
// identity embedded.
type OwnerService interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, ownerID, bookingID, status string) error
	Refresh(ctx context.Context) error
	Cached() []*model.Booking
}

type ownerService struct {
	repo      repository.BookingRepository
	offices   officesrepo.OfficeRepository
	validator *validator.BookingValidator
	changes   *cdc.Publisher
	bookings  *cache.List[*model.Booking]
	cfg       *config.Config

	scopeMu sync.RWMutex
	scope   string
}

func NewOwnerService(
	repo repository.BookingRepository,
	offices officesrepo.OfficeRepository,
	validator *validator.BookingValidator,
	changes *cdc.Publisher,
	cfg *config.Config,
) OwnerService {
	return &ownerService{
		repo:      repo,
		offices:   offices,
		validator: validator,
		changes:   changes,
		bookings:  cache.NewList[*model.Booking](),
		cfg:       cfg,
	}
}

// ListByOwner resolves the owner's office ids first. An owner with no offices
// short-circuits to an empty list without touching the bookings collection.
func (s *ownerService) ListByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("Owner ID cannot be empty")
	}

	officeIDs, err := s.offices.FindIDsByOwner(ctx, ownerID)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve owner office ids", "owner_id", ownerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	s.setScope(ownerID)

	if len(officeIDs) == 0 {
		s.bookings.Replace(nil)
		return []*model.Booking{}, nil
	}

	bookings, err := s.repo.FindByOffices(ctx, officeIDs)
	if err != nil {
		s.cfg.Log.Error("Failed to list owner bookings", "owner_id", ownerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	s.bookings.Replace(bookings)
	return bookings, nil
}

// UpdateStatus overwrites the booking status unconditionally, patches the
// cached row, and publishes the update event. Only bookings against the
// owner's own offices may be touched.
func (s *ownerService) UpdateStatus(ctx context.Context, ownerID, bookingID, status string) error {
	if bookingID == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateStatus(status); err != nil {
		s.cfg.Log.Warn("Status validation failed", "id", bookingID, "status", status, "error", err)
		return apperrors.Validation("Invalid booking status", map[string]any{"error": err.Error()})
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to retrieve booking", err)
	}

	office, err := s.offices.FindByID(ctx, booking.OfficeID)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve booking's office", "office_id", booking.OfficeID, "error", err)
		return apperrors.Internal("Failed to update booking status", err)
	}
	if office.OwnerID != ownerID {
		return apperrors.Forbidden("Booking belongs to another owner's office")
	}

	if err := s.repo.UpdateStatus(ctx, bookingID, status); err != nil {
		s.cfg.Log.Error("Failed to update booking status", "id", bookingID, "error", err)
		return apperrors.Internal("Failed to update booking status", err)
	}

	s.bookings.Patch(bookingID, func(cached *model.Booking) *model.Booking {
		copied := *cached
		copied.Status = status
		return &copied
	})

	booking.Status = status
	s.publish(ctx, cdc.EventUpdate, booking)

	s.cfg.Log.Info("Booking status updated", "id", bookingID, "status", status)
	return nil
}

// Refresh refetches the whole owner view using the last listed owner. The
// change feed calls this on every booking event; refetching everything means
// a lost event self-heals on the next one.
func (s *ownerService) Refresh(ctx context.Context) error {
	ownerID := s.currentScope()
	if ownerID == "" {
		return nil
	}

	_, err := s.ListByOwner(ctx, ownerID)
	return err
}

func (s *ownerService) Cached() []*model.Booking {
	return s.bookings.Snapshot()
}

// --- Helpers ---

func (s *ownerService) setScope(ownerID string) {
	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()
	s.scope = ownerID
}

func (s *ownerService) currentScope() string {
	s.scopeMu.RLock()
	defer s.scopeMu.RUnlock()
	return s.scope
}

func (s *ownerService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if s.changes == nil {
		return
	}

	ev, err := cdc.NewChangeEvent(cdc.TableBookings, eventType, booking.ID, booking)
	if err != nil {
		s.cfg.Log.Error("Failed to build booking change event", "id", booking.ID, "error", err)
		return
	}
	if err := s.changes.Publish(ctx, ev); err != nil {
		s.cfg.Log.Error("Failed to publish booking change event", "id", booking.ID, "error", err)
	}
}
