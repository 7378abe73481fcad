package feed

import (
	"context"
	"time"

	"deskbook/internal/bookings/service"
	"deskbook/pkg/cdc"
	cdc_config "deskbook/pkg/cdc/config"
	cdcmiddleware "deskbook/pkg/cdc/middleware"
	"deskbook/pkg/logger"
)

const refreshTimeout = 10 * time.Second

// OwnerFeed consumes every booking change event, unfiltered, and refetches
// the owner view wholesale each time. Coarse, but a lost event is repaired by
// whichever event arrives next.
type OwnerFeed struct {
	subscriber *cdc.Subscriber
	service    service.OwnerService
	log        *logger.Logger
}

func NewOwnerFeed(cfg *cdc_config.Config, svc service.OwnerService, groupID string, log *logger.Logger) (*OwnerFeed, error) {
	f := &OwnerFeed{
		service: svc,
		log:     log,
	}

	subscriber, err := cdc.NewSubscriber(cfg, cdc.TableBookings, cdc.EventAll, groupID, f.handleEvent)
	if err != nil {
		return nil, err
	}
	subscriber.Use(cdcmiddleware.EventLogging(log))

	f.subscriber = subscriber
	return f, nil
}

// Start consumes until the context is cancelled.
func (f *OwnerFeed) Start(ctx context.Context) error {
	f.log.Info("Owner booking feed started")
	return f.subscriber.Start(ctx)
}

// Close is idempotent.
func (f *OwnerFeed) Close() error {
	return f.subscriber.Close()
}

func (f *OwnerFeed) handleEvent(ev cdc.ChangeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := f.service.Refresh(ctx); err != nil {
		f.log.Warn("Owner view refresh failed, will retry on next event",
			"event_id", ev.ID,
			"error", err,
		)
		return err
	}
	return nil
}
