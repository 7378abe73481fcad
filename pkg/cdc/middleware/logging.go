package middleware

import (
	"time"

	"deskbook/pkg/cdc"
	"deskbook/pkg/logger"
)

// EventLogging logs every handled change event with its outcome and latency.
func EventLogging(log *logger.Logger) cdc.Middleware {
	return func(ev cdc.ChangeEvent, next cdc.Handler) error {
		start := time.Now()

		err := next(ev)

		duration := time.Since(start)
		if err != nil {
			log.Error("Change event handling failed",
				"event_id", ev.ID,
				"table", ev.Table,
				"type", ev.Type,
				"row_id", ev.RowID,
				"duration_ms", duration.Milliseconds(),
				"error", err,
			)
			return err
		}

		log.Debug("Change event handled",
			"event_id", ev.ID,
			"table", ev.Table,
			"type", ev.Type,
			"row_id", ev.RowID,
			"duration_ms", duration.Milliseconds(),
		)
		return nil
	}
}
