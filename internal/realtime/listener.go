package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/seuros/funnelscope/internal/database"
	"github.com/seuros/funnelscope/internal/logging"
)

// SnapshotReloaded is pushed to every subscriber after the server swapped in
// a freshly imported snapshot.
type SnapshotReloaded struct {
	Type   string   `json:"type"`
	Months []string `json:"months"`
}

// NewSnapshotReloaded builds the broadcast payload for an import event.
func NewSnapshotReloaded(event database.ImportEvent) SnapshotReloaded {
	return SnapshotReloaded{Type: "snapshot_reloaded", Months: event.Months}
}

// ParseImportEvent decodes a NOTIFY payload of database.SnapshotChannel.
func ParseImportEvent(payload string) (database.ImportEvent, error) {
	var event database.ImportEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return database.ImportEvent{}, fmt.Errorf("invalid import notification: %w", err)
	}
	return event, nil
}

// StartListener subscribes to snapshot imports and calls onImport for each
// one until ctx is cancelled.
func StartListener(ctx context.Context, databaseURL string, onImport func(database.ImportEvent)) error {
	listener := pq.NewListener(databaseURL, 5*time.Second, time.Minute, func(event pq.ListenerEventType, err error) {
		if err != nil {
			logging.L().Warn("snapshot listener event", "event", event, "error", err)
		}
	})

	if err := listener.Listen(database.SnapshotChannel); err != nil {
		_ = listener.Close()
		return err
	}

	go func() {
		defer func() {
			_ = listener.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// nil after a reconnect; the import may have been missed.
				if n == nil {
					continue
				}
				event, err := ParseImportEvent(n.Extra)
				if err != nil {
					logging.L().Warn("ignoring snapshot notification", "error", err)
					continue
				}
				onImport(event)
			case <-time.After(time.Minute):
				if err := listener.Ping(); err != nil {
					logging.L().Warn("snapshot listener ping failed", "error", err)
				}
			}
		}
	}()

	return nil
}
