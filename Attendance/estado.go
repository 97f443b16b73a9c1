package Attendance

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"MediFlow/ApiClient"
)

// Time-of-day layout used by the attendance endpoints
const clockLayout = "15:04"

// Estado is the local view of today's last clock-in and clock-out, in epoch
// milliseconds. It is always re-derived from the backend and never persisted.
type Estado struct {
	LastEntryMillis *int64 `json:"last_entry_millis,omitempty"`
	LastExitMillis  *int64 `json:"last_exit_millis,omitempty"`
}

// IsClockedIn is true when there is an entry and it is newer than the exit
func (e Estado) IsClockedIn() bool {
	if e.LastEntryMillis == nil {
		return false
	}
	return e.LastExitMillis == nil || *e.LastEntryMillis > *e.LastExitMillis
}

// CurrentFetcher reads today's attendance record
type CurrentFetcher interface {
	AsistenciaActual(ctx context.Context, userID int) (ApiClient.AsistenciaActual, error)
}

// Tracker holds the last fetched Estado. Refresh is the only writer.
type Tracker struct {
	source   CurrentFetcher
	now      func() time.Time
	location *time.Location

	mu     sync.RWMutex
	estado Estado
}

// NewTracker creates an empty tracker. A nil location means time.Local.
func NewTracker(source CurrentFetcher, location *time.Location) *Tracker {
	if location == nil {
		location = time.Local
	}
	return &Tracker{source: source, now: time.Now, location: location}
}

// Refresh fetches the current record and replaces the cached Estado. On
// network errors the previous Estado is kept and returned.
func (t *Tracker) Refresh(ctx context.Context, userID int) Estado {
	rec, err := t.source.AsistenciaActual(ctx, userID)
	if err != nil {
		log.Printf("attendance: refresh failed for user %d: %v", userID, err)
		return t.Estado()
	}

	today := t.now().In(t.location)
	next := Estado{
		LastEntryMillis: parseClock(rec.HoraEntrada, today, "hora_entrada"),
		LastExitMillis:  parseClock(rec.HoraSalida, today, "hora_salida"),
	}

	t.mu.Lock()
	t.estado = next
	t.mu.Unlock()
	return next
}

func (t *Tracker) Estado() Estado {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.estado
}

func (t *Tracker) IsClockedIn() bool {
	return t.Estado().IsClockedIn()
}

// parseClock anchors an "HH:mm" value to the date of day. Missing or
// malformed values give nil.
func parseClock(raw *string, day time.Time, field string) *int64 {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	value := strings.TrimSpace(*raw)
	// time.Parse alone would take a single-digit hour
	if len(value) != len(clockLayout) || value[2] != ':' {
		log.Printf("attendance: ignoring %s %q: not HH:mm", field, *raw)
		return nil
	}
	clock, err := time.Parse(clockLayout, value)
	if err != nil {
		log.Printf("attendance: ignoring %s %q: %v", field, *raw, err)
		return nil
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, day.Location())
	millis := at.UnixMilli()
	return &millis
}
