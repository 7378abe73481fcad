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

// RequesterService is the booking view a seeker works against: their own
// bookings with the office embedded, newest-first, mirrored into a cache the
// change feed keeps patched.
type RequesterService interface {
	List(ctx context.Context, requesterID string) ([]*model.Booking, error)
	Create(ctx context.Context, requesterID string, req *model.BookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, requesterID, bookingID string) error
	MergeRemote(booking *model.Booking) bool
	Cached() []*model.Booking
}

type requesterService struct {
	repo      repository.BookingRepository
	offices   officesrepo.OfficeRepository
	validator *validator.BookingValidator
	changes   *cdc.Publisher
	bookings  *cache.List[*model.Booking]
	cfg       *config.Config

	// scope is the requester the cache currently mirrors.
	scopeMu sync.RWMutex
	scope   string
}

func NewRequesterService(
	repo repository.BookingRepository,
	offices officesrepo.OfficeRepository,
	validator *validator.BookingValidator,
	changes *cdc.Publisher,
	cfg *config.Config,
) RequesterService {
	return &requesterService{
		repo:      repo,
		offices:   offices,
		validator: validator,
		changes:   changes,
		bookings:  cache.NewList[*model.Booking](),
		cfg:       cfg,
	}
}

func (s *requesterService) List(ctx context.Context, requesterID string) ([]*model.Booking, error) {
	if requesterID == "" {
		return nil, apperrors.InvalidInput("Requester ID cannot be empty")
	}

	bookings, err := s.repo.FindByUser(ctx, requesterID)
	if err != nil {
		s.cfg.Log.Error("Failed to list requester bookings", "requester_id", requesterID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	s.setScope(requesterID)
	s.bookings.Replace(bookings)
	return bookings, nil
}

// Create inserts the booking with status forced to pending, bumps the
// office's booking counter best-effort, publishes the insert event, and
// refetches the requester's list.
func (s *requesterService) Create(ctx context.Context, requesterID string, req *model.BookingRequest) (*model.Booking, error) {
	if requesterID == "" {
		return nil, apperrors.InvalidInput("Requester ID cannot be empty")
	}
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	booking := &model.Booking{
		OfficeID:    req.OfficeID,
		UserID:      requesterID,
		BookingDate: req.BookingDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      model.StatusPending,
	}

	if err := s.repo.Insert(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "requester_id", requesterID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	// Counter bump is best-effort: a failure is logged and the booking
	// stands, leaving the counter behind by one.
	if err := s.offices.IncrementBookingCount(ctx, booking.OfficeID); err != nil {
		s.cfg.Log.Warn("Failed to increment office booking count",
			"office_id", booking.OfficeID,
			"booking_id", booking.ID,
			"error", err,
		)
	}

	s.publish(ctx, cdc.EventInsert, booking)

	if _, err := s.List(ctx, requesterID); err != nil {
		s.cfg.Log.Warn("Failed to refetch bookings after create", "requester_id", requesterID, "error", err)
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"office_id", booking.OfficeID,
		"requester_id", requesterID,
	)
	return booking, nil
}

// Cancel overwrites the status with cancelled regardless of the current
// status, so cancelling twice is a no-op.
func (s *requesterService) Cancel(ctx context.Context, requesterID, bookingID string) error {
	if bookingID == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
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
	if booking.UserID != requesterID {
		return apperrors.Forbidden("Booking belongs to another account")
	}

	if err := s.repo.UpdateStatus(ctx, bookingID, model.StatusCancelled); err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", bookingID, "error", err)
		return apperrors.Internal("Failed to cancel booking", err)
	}

	booking.Status = model.StatusCancelled
	s.publish(ctx, cdc.EventUpdate, booking)

	if _, err := s.List(ctx, requesterID); err != nil {
		s.cfg.Log.Warn("Failed to refetch bookings after cancel", "requester_id", requesterID, "error", err)
	}

	s.cfg.Log.Info("Booking cancelled", "id", bookingID)
	return nil
}

// MergeRemote folds a booking row delivered by the change feed into the
// cache, keeping any embedded office already cached. Rows belonging to a
// different requester than the cache's current scope are ignored.
func (s *requesterService) MergeRemote(booking *model.Booking) bool {
	if booking == nil || booking.UserID != s.currentScope() {
		return false
	}

	return s.bookings.Patch(booking.ID, func(cached *model.Booking) *model.Booking {
		merged := *booking
		if merged.Office == nil {
			merged.Office = cached.Office
		}
		return &merged
	})
}

func (s *requesterService) Cached() []*model.Booking {
	return s.bookings.Snapshot()
}

// --- Helpers ---

func (s *requesterService) setScope(requesterID string) {
	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()
	s.scope = requesterID
}

func (s *requesterService) currentScope() string {
	s.scopeMu.RLock()
	defer s.scopeMu.RUnlock()
	return s.scope
}

func (s *requesterService) publish(ctx context.Context, eventType string, booking *model.Booking) {
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
