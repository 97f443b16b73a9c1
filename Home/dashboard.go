package Home

import (
	"context"
	"log"
	"sync"
	"time"

	"MediFlow/ApiClient"
	"MediFlow/Attendance"
	"MediFlow/Events"
	"MediFlow/Identity"
)

type ScheduleItem struct {
	Hora      string
	Titulo    string
	Subtitulo string
}

type Level string

const (
	LevelOK       Level = "OK"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Indicator thresholds as a ratio of the maximum
const (
	okRatio      = 0.7
	warningRatio = 0.4
)

type Indicator struct {
	Titulo string
	Valor  float64
	Nivel  Level
}

// LevelFor classifies value within [0, max]
func LevelFor(value, max float64) Level {
	ratio := 0.0
	if max > 0 {
		ratio = value / max
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	switch {
	case ratio >= okRatio:
		return LevelOK
	case ratio >= warningRatio:
		return LevelWarning
	}
	return LevelCritical
}

type Backend interface {
	HorariosByUID(ctx context.Context, uid string, vigente bool) ([]ApiClient.Horario, error)
	Indicadores(ctx context.Context, userID int) (ApiClient.Indicadores, error)
}

type UserResolver interface {
	Resolve(ctx context.Context) (int, error)
}

type State struct {
	UserID      int
	Schedule    []ScheduleItem
	Estado      Attendance.Estado
	Indicadores ApiClient.Indicadores
	Err         error
}

// Dashboard is the home screen data: today's schedule, attendance status and
// wellbeing indicators
type Dashboard struct {
	backend  Backend
	identity Identity.Provider
	users    UserResolver
	tracker  *Attendance.Tracker

	mu    sync.RWMutex
	state State
}

func NewDashboard(backend Backend, identity Identity.Provider, users UserResolver, tracker *Attendance.Tracker) *Dashboard {
	return &Dashboard{backend: backend, identity: identity, users: users, tracker: tracker}
}

func (d *Dashboard) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st := d.state
	st.Schedule = append([]ScheduleItem(nil), d.state.Schedule...)
	st.Estado = d.tracker.Estado()
	return st
}

// Load refreshes the schedule, then resolves the user id and refreshes the
// attendance status and indicators. Failures degrade to empty data.
func (d *Dashboard) Load(ctx context.Context) error {
	if _, ok := d.identity.CurrentUserID(); !ok {
		d.setErr(Identity.ErrNotAuthenticated)
		return Identity.ErrNotAuthenticated
	}
	d.RefreshSchedule(ctx)

	userID, err := d.users.Resolve(ctx)
	if err != nil {
		log.Printf("home: user id unresolved: %v", err)
		d.setErr(err)
		return err
	}
	d.mu.Lock()
	d.state.UserID = userID
	d.mu.Unlock()

	d.tracker.Refresh(ctx, userID)
	d.RefreshIndicators(ctx, userID)
	return nil
}

func (d *Dashboard) RefreshSchedule(ctx context.Context) {
	uid, ok := d.identity.CurrentUserID()
	if !ok {
		d.setErr(Identity.ErrNotAuthenticated)
		return
	}
	horarios, err := d.backend.HorariosByUID(ctx, uid, true)
	if err != nil {
		log.Printf("home: loading horarios for %s: %v", uid, err)
		d.mu.Lock()
		d.state.Schedule = nil
		if !ApiClient.IsNotFound(err) {
			d.state.Err = err
		}
		d.mu.Unlock()
		return
	}
	items := ScheduleItems(horarios)
	d.mu.Lock()
	d.state.Schedule = items
	d.state.Err = nil
	d.mu.Unlock()
}

// RefreshIndicators keeps the previous values when the request fails
func (d *Dashboard) RefreshIndicators(ctx context.Context, userID int) {
	ind, err := d.backend.Indicadores(ctx, userID)
	if err != nil {
		log.Printf("home: loading indicadores for user %d: %v", userID, err)
		return
	}
	d.mu.Lock()
	d.state.Indicadores = ind
	d.mu.Unlock()
}

// Indicators lists the four indicators with their levels
func (d *Dashboard) Indicators() []Indicator {
	ind := d.State().Indicadores
	list := []Indicator{
		{Titulo: "Bienestar promedio", Valor: ind.BienestarPromedioPct},
		{Titulo: "Salud emocional (7 días)", Valor: ind.SaludEmocionalProm7Pct},
		{Titulo: "Asistencia semanal", Valor: ind.AsistenciaSemanalPct},
		{Titulo: "Motivación general", Valor: ind.MotivacionGeneralPct},
	}
	for i := range list {
		list[i].Nivel = LevelFor(list[i].Valor, 100)
	}
	return list
}

// Watch refreshes the schedule whenever a horario push arrives, until ctx is
// done or the bus closes
func (d *Dashboard) Watch(ctx context.Context, bus *Events.Bus) {
	events, cancel := bus.Subscribe(Events.DefaultBuffer)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Name == Events.HorarioAsignado {
				log.Println("home: horario changed, refreshing schedule")
				d.RefreshSchedule(ctx)
			}
		}
	}
}

func (d *Dashboard) setErr(err error) {
	d.mu.Lock()
	d.state.Err = err
	d.mu.Unlock()
}

// ScheduleItems builds the timeline of the first horario. Times that cannot
// be parsed are shown as sent.
func ScheduleItems(horarios []ApiClient.Horario) []ScheduleItem {
	if len(horarios) == 0 {
		return nil
	}
	h := horarios[0]
	items := []ScheduleItem{{Hora: formatClock(h.HoraEntrada), Titulo: "Entrada", Subtitulo: "Comenzar jornada"}}
	if h.HoraRefrigerio != nil && *h.HoraRefrigerio != "" {
		items = append(items, ScheduleItem{Hora: formatClock(*h.HoraRefrigerio), Titulo: "Refrigerio", Subtitulo: "Hora de break"})
	}
	items = append(items, ScheduleItem{Hora: formatClock(h.HoraSalida), Titulo: "Salida", Subtitulo: "Cerrar jornada"})
	return items
}

func formatClock(raw string) string {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		// some rows carry seconds
		if t, err = time.Parse("15:04:05", raw); err != nil {
			return raw
		}
	}
	return t.Format("3:04 PM")
}
