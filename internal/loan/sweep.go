package loan

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Broadcaster is the notification sink the sweep publishes to.  The
// websocket hub satisfies it.
type Broadcaster interface {
	Broadcast(eventType string, payload interface{})
}

// StartOverdueSweep schedules a recurring job that looks up overdue
// loan groups and pushes an "overdue_loans" notification for the desk
// UI.  The sweep only reports; loan rows are never mutated, overdue is
// always derived from the due date at read time.
//
// Returns the started scheduler so the caller can Stop it on shutdown.
func StartOverdueSweep(e *Engine, b Broadcaster, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		groups, err := e.ListOverdue(context.Background())
		if err != nil {
			log.Printf("overdue sweep failed: %v", err)
			return
		}
		if len(groups) == 0 {
			return
		}
		log.Printf("overdue sweep: %d group(s) past due", len(groups))
		if b != nil {
			b.Broadcast("overdue_loans", map[string]interface{}{
				"count":  len(groups),
				"groups": groups,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
