package Attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strconv"
	"sync"

	"MediFlow/ApiClient"
	"MediFlow/Events"
	"MediFlow/Geofence"
)

// Service is the remote attendance API
type Service interface {
	CurrentFetcher
	MarcarEntrada(ctx context.Context, body ApiClient.MarcarEntradaRequest) (ApiClient.MessageResponse, error)
	RegistrarSalida(ctx context.Context, body ApiClient.RegistrarSalidaRequest) (ApiClient.MessageResponse, error)
}

// UserResolver maps the signed-in identity to the backend user id
type UserResolver interface {
	Cached() (int, bool)
	Resolve(ctx context.Context) (int, error)
}

// LocationProvider is the permission-gated device location source
type LocationProvider interface {
	RequestPermission(ctx context.Context) (bool, error)
	LastKnownPosition(ctx context.Context) (*Geofence.Position, error)
}

// IndicatorsRefresher is notified after every successful marking
type IndicatorsRefresher interface {
	RefreshIndicators(ctx context.Context, userID int)
}

// Snapshot is an immutable copy of the session state
type Snapshot struct {
	State             State
	Mode              Mode
	Config            Config
	Estado            Estado
	PermissionGranted bool
	Position          *Geofence.Position
	Geofence          Geofence.Result
	LastMessage       string
	LastError         error
}

// Options wires the optional collaborators of a Session
type Options struct {
	Device     string
	Indicators IndicatorsRefresher
	Bus        *Events.Bus
}

// Session drives one check-in or check-out attempt at a time and is the only
// component that writes to the attendance service
type Session struct {
	config     Config
	tracker    *Tracker
	service    Service
	users      UserResolver
	location   LocationProvider
	indicators IndicatorsRefresher
	bus        *Events.Bus
	device     string

	mu          sync.Mutex
	state       State
	mode        Mode
	permission  bool
	position    *Geofence.Position
	geofence    Geofence.Result
	lastMessage string
	lastErr     error
	subs        map[int]chan Snapshot
	nextSub     int
	// bumped by Open; a fix from an earlier flow is dropped
	flow uint64
}

func NewSession(config Config, tracker *Tracker, service Service, users UserResolver, location LocationProvider, opts Options) *Session {
	device := opts.Device
	if device == "" {
		device = fmt.Sprintf("Go %s/%s (%s)", runtime.GOOS, runtime.GOARCH, runtime.Version())
	}
	return &Session{
		config:     config,
		tracker:    tracker,
		service:    service,
		users:      users,
		location:   location,
		indicators: opts.Indicators,
		bus:        opts.Bus,
		device:     device,
		state:      StateIdle,
		mode:       ModeEntrada,
		subs:       make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that always holds the latest snapshot. Slow
// readers skip intermediate states.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Open starts the check-in flow. The default mode is the inverse of the
// current status.
func (s *Session) Open(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.moveLocked(StateAwaitingLocation); err != nil {
		return s.snapshotLocked(), err
	}
	s.flow++
	if s.tracker.IsClockedIn() {
		s.mode = ModeSalida
	} else {
		s.mode = ModeEntrada
	}
	s.permission = false
	s.position = nil
	s.geofence = Geofence.Result{}
	s.lastErr = nil
	s.lastMessage = ""
	s.notifyLocked()
	return s.snapshotLocked(), nil
}

// AcquireLocation asks for permission and the last known fix, then evaluates
// the geofence. Lack of permission or of a fix still leads to
// READY_TO_CONFIRM with an empty geofence result.
func (s *Session) AcquireLocation(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.state != StateAwaitingLocation && s.state != StateReadyToConfirm {
		defer s.mu.Unlock()
		return s.snapshotLocked(), fmt.Errorf("%w: acquire location from %s", ErrInvalidTransition, s.state)
	}
	flow := s.flow
	s.mu.Unlock()

	granted, err := s.location.RequestPermission(ctx)
	if err != nil {
		log.Printf("attendance: location permission request failed: %v", err)
		granted = false
	}
	var pos *Geofence.Position
	if granted {
		pos, err = s.location.LastKnownPosition(ctx)
		if err != nil {
			log.Printf("attendance: location unavailable: %v", err)
			pos = nil
		}
	}
	result := Geofence.Evaluate(pos, s.config.Zone())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow != flow {
		return s.snapshotLocked(), fmt.Errorf("%w: flow reopened while locating", ErrInvalidTransition)
	}
	if err := s.moveLocked(StateReadyToConfirm); err != nil {
		// the flow was cancelled or submitted while waiting for the fix
		return s.snapshotLocked(), err
	}
	s.permission = granted
	s.position = pos
	s.geofence = result
	s.notifyLocked()
	return s.snapshotLocked(), nil
}

// SetMode switches between ENTRADA and SALIDA without touching the location
func (s *Session) SetMode(mode Mode) error {
	if mode != ModeEntrada && mode != ModeSalida {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReadyToConfirm {
		return fmt.Errorf("%w: set mode in %s", ErrInvalidTransition, s.state)
	}
	if s.mode != mode {
		s.mode = mode
		s.notifyLocked()
	}
	return nil
}

// Cancel closes the flow without submitting
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return nil
	}
	if s.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	if err := s.moveLocked(StateIdle); err != nil {
		return err
	}
	s.notifyLocked()
	return nil
}

// Confirm submits the selected mode with the cached location
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	state, mode, pos, result := s.state, s.mode, s.position, s.geofence
	s.mu.Unlock()

	switch state {
	case StateSubmitting:
		return ErrSubmissionInFlight
	case StateAwaitingLocation, StateReadyToConfirm:
		return s.Submit(ctx, mode, pos, result.DistanceMeters)
	}
	return fmt.Errorf("%w: confirm in %s", ErrInvalidTransition, state)
}

// Submit marks attendance. ENTRADA sends the location descriptor and the
// device, SALIDA only the user id. The backend decides whether a repeated
// marking is accepted. Only one submission runs at a time.
func (s *Session) Submit(ctx context.Context, mode Mode, pos *Geofence.Position, distanceMeters *float64) error {
	if mode != ModeEntrada && mode != ModeSalida {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	userID, ok := s.users.Cached()
	if !ok {
		return s.deferUntilResolved(ctx)
	}

	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if err := s.moveLocked(StateSubmitting); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mode = mode
	s.position = pos
	s.lastErr = nil
	s.notifyLocked()
	s.mu.Unlock()

	// the remote call always completes so the backend is not left half-written
	msg, err := s.send(context.WithoutCancel(ctx), userID, mode, pos, distanceMeters)

	if ctx.Err() != nil {
		log.Printf("attendance: caller went away, discarding %s result (err=%v)", mode, err)
		s.mu.Lock()
		s.state = StateIdle
		s.notifyLocked()
		s.mu.Unlock()
		return ctx.Err()
	}

	if err != nil {
		failure := fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
		log.Printf("attendance: %s for user %d failed: %v", mode, userID, err)
		s.mu.Lock()
		s.state = StateFailed
		s.lastErr = failure
		s.notifyLocked()
		s.state = StateReadyToConfirm
		s.notifyLocked()
		s.mu.Unlock()
		return failure
	}

	log.Printf("attendance: %s registered for user %d", mode, userID)
	s.mu.Lock()
	s.state = StateSuccess
	s.lastMessage = msg
	s.notifyLocked()
	s.mu.Unlock()

	s.tracker.Refresh(ctx, userID)
	if s.indicators != nil {
		s.indicators.RefreshIndicators(ctx, userID)
	}
	if s.bus != nil {
		s.bus.Publish(Events.Event{Name: Events.AsistenciaMarcada, Data: map[string]string{"modo": string(mode)}})
	}

	s.mu.Lock()
	s.state = StateIdle
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

func (s *Session) send(ctx context.Context, userID int, mode Mode, pos *Geofence.Position, distanceMeters *float64) (string, error) {
	if mode == ModeSalida {
		res, err := s.service.RegistrarSalida(ctx, ApiClient.RegistrarSalidaRequest{IDUsuario: userID})
		return res.Message, err
	}
	device := s.device
	res, err := s.service.MarcarEntrada(ctx, ApiClient.MarcarEntradaRequest{
		IDUsuario:          userID,
		UbicacionMarcado:   LocationDescriptor(pos, distanceMeters),
		DispositivoMarcado: &device,
	})
	return res.Message, err
}

// deferUntilResolved triggers the user id lookup and reports that the
// action has to be repeated
func (s *Session) deferUntilResolved(ctx context.Context) error {
	userID, err := s.users.Resolve(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return err
		}
		log.Printf("attendance: user id still unresolved: %v", err)
		return ErrNotReady
	}
	s.tracker.Refresh(ctx, userID)
	if s.indicators != nil {
		s.indicators.RefreshIndicators(ctx, userID)
	}
	s.mu.Lock()
	s.notifyLocked()
	s.mu.Unlock()
	return ErrNotReady
}

// LocationDescriptor formats a fix as "<lat>,<lon>;dist=<meters>m". Without
// a fix there is no descriptor; an unknown distance is written as 0.
func LocationDescriptor(pos *Geofence.Position, distanceMeters *float64) *string {
	if pos == nil {
		return nil
	}
	distance := 0.0
	if distanceMeters != nil {
		distance = *distanceMeters
	}
	descriptor := strconv.FormatFloat(pos.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(pos.Lon, 'f', -1, 64) +
		";dist=" + strconv.FormatFloat(distance, 'f', 1, 64) + "m"
	return &descriptor
}

func (s *Session) moveLocked(to State) error {
	if !ValidTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	return nil
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:             s.state,
		Mode:              s.mode,
		Config:            s.config,
		Estado:            s.tracker.Estado(),
		PermissionGranted: s.permission,
		Position:          s.position,
		Geofence:          s.geofence,
		LastMessage:       s.lastMessage,
		LastError:         s.lastErr,
	}
}

func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// drop the stale snapshot and keep the latest one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
