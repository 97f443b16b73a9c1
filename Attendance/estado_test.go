package Attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediFlow/ApiClient"
)

func millis(v int64) *int64 { return &v }

func TestEstadoIsClockedIn(t *testing.T) {
	tests := []struct {
		name   string
		estado Estado
		want   bool
	}{
		{"empty", Estado{}, false},
		{"entry only", Estado{LastEntryMillis: millis(10)}, true},
		{"exit after entry", Estado{LastEntryMillis: millis(10), LastExitMillis: millis(20)}, false},
		{"entry after exit", Estado{LastEntryMillis: millis(30), LastExitMillis: millis(20)}, true},
		{"same instant", Estado{LastEntryMillis: millis(20), LastExitMillis: millis(20)}, false},
		{"exit only", Estado{LastExitMillis: millis(20)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.estado.IsClockedIn())
		})
	}
}

func newTestTracker(svc *fakeService, now time.Time) *Tracker {
	tr := NewTracker(svc, time.UTC)
	tr.now = func() time.Time { return now }
	return tr
}

func TestRefreshAnchorsClockToToday(t *testing.T) {
	now := time.Date(2024, 5, 14, 15, 0, 0, 0, time.UTC)
	svc := &fakeService{current: ApiClient.AsistenciaActual{
		Estado:      strPtr("en_jornada"),
		HoraEntrada: strPtr("08:02"),
	}}
	tr := newTestTracker(svc, now)

	e := tr.Refresh(context.Background(), 7)
	require.NotNil(t, e.LastEntryMillis)
	assert.Nil(t, e.LastExitMillis)
	assert.Equal(t, time.Date(2024, 5, 14, 8, 2, 0, 0, time.UTC).UnixMilli(), *e.LastEntryMillis)
	assert.True(t, tr.IsClockedIn())
}

func TestRefreshAfterExit(t *testing.T) {
	now := time.Date(2024, 5, 14, 18, 0, 0, 0, time.UTC)
	svc := &fakeService{current: ApiClient.AsistenciaActual{
		HoraEntrada: strPtr("08:00"),
		HoraSalida:  strPtr("17:30"),
	}}
	tr := newTestTracker(svc, now)

	e := tr.Refresh(context.Background(), 7)
	require.NotNil(t, e.LastExitMillis)
	assert.False(t, e.IsClockedIn())
}

func TestRefreshIgnoresMalformedField(t *testing.T) {
	svc := &fakeService{current: ApiClient.AsistenciaActual{
		HoraEntrada: strPtr("08:00"),
		HoraSalida:  strPtr("later"),
	}}
	tr := newTestTracker(svc, time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC))

	e := tr.Refresh(context.Background(), 7)
	assert.NotNil(t, e.LastEntryMillis)
	assert.Nil(t, e.LastExitMillis)
	assert.True(t, e.IsClockedIn())
}

func TestParseClockIsStrictHHmm(t *testing.T) {
	day := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		raw  string
		want *int64
	}{
		{"09:05", millis(time.Date(2024, 5, 14, 9, 5, 0, 0, time.UTC).UnixMilli())},
		{" 18:30 ", millis(time.Date(2024, 5, 14, 18, 30, 0, 0, time.UTC).UnixMilli())},
		{"9:00", nil},
		{"09:5", nil},
		{"0900", nil},
		{"24:00", nil},
		{"09:00:00", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			raw := tt.raw
			assert.Equal(t, tt.want, parseClock(&raw, day, "hora_entrada"))
		})
	}
}

func TestRefreshKeepsPreviousOnError(t *testing.T) {
	svc := &fakeService{current: ApiClient.AsistenciaActual{HoraEntrada: strPtr("08:00")}}
	tr := newTestTracker(svc, time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC))
	before := tr.Refresh(context.Background(), 7)

	svc.fetchErr = errors.New("network down")
	after := tr.Refresh(context.Background(), 7)
	assert.Equal(t, before, after)
	assert.True(t, tr.IsClockedIn())
}

func TestRefreshEmptyRecordClearsState(t *testing.T) {
	svc := &fakeService{current: ApiClient.AsistenciaActual{HoraEntrada: strPtr("08:00")}}
	tr := newTestTracker(svc, time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC))
	tr.Refresh(context.Background(), 7)

	svc.current = ApiClient.AsistenciaActual{Estado: strPtr("sin_marcar")}
	e := tr.Refresh(context.Background(), 7)
	assert.Equal(t, Estado{}, e)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" salida ")
	require.NoError(t, err)
	assert.Equal(t, ModeSalida, m)
	assert.Equal(t, "Marcar salida", m.Label())

	_, err = ParseMode("pausa")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
