// Package feed wires the booking views to the change-data-capture stream.
// The requester feed patches individual cached rows; the owner feed refetches
// the whole view on any event. Both tolerate duplicate and lost deliveries.
package feed

import (
	"context"

	"deskbook/internal/bookings/service"
	"deskbook/pkg/cdc"
	cdc_config "deskbook/pkg/cdc/config"
	cdcmiddleware "deskbook/pkg/cdc/middleware"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

// RequesterFeed consumes booking update events and merges rows belonging to
// the requester view's current scope into its cache. Inserts and deletes are
// ignored; the view refetches after its own writes.
type RequesterFeed struct {
	subscriber *cdc.Subscriber
	service    service.RequesterService
	log        *logger.Logger
}

func NewRequesterFeed(cfg *cdc_config.Config, svc service.RequesterService, groupID string, log *logger.Logger) (*RequesterFeed, error) {
	f := &RequesterFeed{
		service: svc,
		log:     log,
	}

	subscriber, err := cdc.NewSubscriber(cfg, cdc.TableBookings, cdc.EventUpdate, groupID, f.handleEvent)
	if err != nil {
		return nil, err
	}
	subscriber.Use(cdcmiddleware.EventLogging(log))

	f.subscriber = subscriber
	return f, nil
}

// Start consumes until the context is cancelled.
func (f *RequesterFeed) Start(ctx context.Context) error {
	f.log.Info("Requester booking feed started")
	return f.subscriber.Start(ctx)
}

// Close is idempotent.
func (f *RequesterFeed) Close() error {
	return f.subscriber.Close()
}

func (f *RequesterFeed) handleEvent(ev cdc.ChangeEvent) error {
	var booking model.Booking
	if err := ev.DecodeRow(&booking); err != nil {
		// A row that cannot decode will never decode; skip it.
		f.log.Warn("Skipping undecodable booking row", "event_id", ev.ID, "error", err)
		return nil
	}

	if f.service.MergeRemote(&booking) {
		f.log.Debug("Merged booking update into requester cache",
			"booking_id", booking.ID,
			"status", booking.Status,
		)
	}
	return nil
}
