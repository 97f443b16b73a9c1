package Attendance

import (
	"context"
	"sync"

	"MediFlow/ApiClient"
	"MediFlow/Geofence"
)

type fakeService struct {
	mu       sync.Mutex
	current  ApiClient.AsistenciaActual
	fetchErr error
	fetches  int

	entradaFn func(body ApiClient.MarcarEntradaRequest) (ApiClient.MessageResponse, error)
	salidaFn  func(body ApiClient.RegistrarSalidaRequest) (ApiClient.MessageResponse, error)
	entradas  []ApiClient.MarcarEntradaRequest
	salidas   []ApiClient.RegistrarSalidaRequest
}

func (f *fakeService) AsistenciaActual(ctx context.Context, userID int) (ApiClient.AsistenciaActual, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.current, f.fetchErr
}

func (f *fakeService) MarcarEntrada(ctx context.Context, body ApiClient.MarcarEntradaRequest) (ApiClient.MessageResponse, error) {
	f.mu.Lock()
	f.entradas = append(f.entradas, body)
	fn := f.entradaFn
	f.mu.Unlock()
	if fn == nil {
		return ApiClient.MessageResponse{Message: "Entrada registrada"}, nil
	}
	return fn(body)
}

func (f *fakeService) RegistrarSalida(ctx context.Context, body ApiClient.RegistrarSalidaRequest) (ApiClient.MessageResponse, error) {
	f.mu.Lock()
	f.salidas = append(f.salidas, body)
	fn := f.salidaFn
	f.mu.Unlock()
	if fn == nil {
		return ApiClient.MessageResponse{Message: "Salida registrada"}, nil
	}
	return fn(body)
}

func (f *fakeService) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeService) entradaCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entradas)
}

type fakeUsers struct {
	id         int
	resolved   bool
	resolveErr error
	resolves   int
}

func (f *fakeUsers) Cached() (int, bool) { return f.id, f.resolved }

func (f *fakeUsers) Resolve(ctx context.Context) (int, error) {
	f.resolves++
	if f.resolveErr != nil {
		return 0, f.resolveErr
	}
	f.resolved = true
	return f.id, nil
}

type fakeLocation struct {
	granted bool
	permErr error
	pos     *Geofence.Position
	posErr  error
}

func (f fakeLocation) RequestPermission(ctx context.Context) (bool, error) {
	return f.granted, f.permErr
}

func (f fakeLocation) LastKnownPosition(ctx context.Context) (*Geofence.Position, error) {
	return f.pos, f.posErr
}

type countingLocation struct {
	fakeLocation
	permissions int
	positions   int
}

func (c *countingLocation) RequestPermission(ctx context.Context) (bool, error) {
	c.permissions++
	return c.fakeLocation.RequestPermission(ctx)
}

func (c *countingLocation) LastKnownPosition(ctx context.Context) (*Geofence.Position, error) {
	c.positions++
	return c.fakeLocation.LastKnownPosition(ctx)
}

// slowLocation holds the first fix until release is closed
type slowLocation struct {
	pos     *Geofence.Position
	waiting chan struct{}
	release chan struct{}
	once    sync.Once
}

func newSlowLocation(pos *Geofence.Position) *slowLocation {
	return &slowLocation{pos: pos, waiting: make(chan struct{}), release: make(chan struct{})}
}

func (s *slowLocation) RequestPermission(ctx context.Context) (bool, error) { return true, nil }

func (s *slowLocation) LastKnownPosition(ctx context.Context) (*Geofence.Position, error) {
	s.once.Do(func() {
		close(s.waiting)
		<-s.release
	})
	return s.pos, nil
}

type countingIndicators struct {
	calls []int
}

func (c *countingIndicators) RefreshIndicators(ctx context.Context, userID int) {
	c.calls = append(c.calls, userID)
}

func strPtr(s string) *string { return &s }
