// Command checkin marks the daily entry or exit of a MediFlow user from the
// terminal and prints the home dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"MediFlow/ApiClient"
	"MediFlow/Attendance"
	"MediFlow/Configs"
	"MediFlow/Events"
	"MediFlow/Geofence"
	"MediFlow/Home"
	"MediFlow/Identity"
	"MediFlow/Preferences"
	"MediFlow/Surveys"
)

type options struct {
	configPath string
	email      string
	password   string
	lat, lon   float64
	mode       string
	statusOnly bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "checkin.json5", "client configuration file")
	flag.StringVar(&opts.email, "email", os.Getenv("MEDIFLOW_EMAIL"), "account email")
	flag.StringVar(&opts.password, "password", os.Getenv("MEDIFLOW_PASSWORD"), "account password")
	flag.Float64Var(&opts.lat, "lat", math.NaN(), "current latitude")
	flag.Float64Var(&opts.lon, "lon", math.NaN(), "current longitude")
	flag.StringVar(&opts.mode, "mode", "", "ENTRADA or SALIDA, defaults to the opposite of today's status")
	flag.BoolVar(&opts.statusOnly, "status", false, "print the dashboard without marking")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := Configs.LoadClientConfig(opts.configPath)
	if err != nil {
		return err
	}
	loc := time.Local
	if cfg.Timezone != "" {
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	firebase := Identity.NewFirebaseProvider(cfg.FirebaseAPIKey)
	client := ApiClient.New(cfg.BaseURL, firebase)
	if err := Identity.Login(ctx, firebase, client, opts.email, opts.password); err != nil {
		return err
	}

	store, err := Preferences.Open(cfg.PreferencesDB)
	if err != nil {
		return err
	}
	pending := Preferences.PendingSurvey{Store: store}

	bus := Events.NewBus()
	defer bus.Close()
	resolver := Identity.NewResolver(firebase, client)
	tracker := Attendance.NewTracker(client, loc)
	dashboard := Home.NewDashboard(client, firebase, resolver, tracker)
	if err := dashboard.Load(ctx); err != nil {
		log.Printf("dashboard incomplete: %v", err)
	}

	if !opts.statusOnly {
		session := Attendance.NewSession(cfg.Attendance(), tracker, client, resolver,
			fixedLocation{pos: position(opts.lat, opts.lon)},
			Attendance.Options{Device: cfg.Device, Indicators: dashboard, Bus: bus})
		if err := mark(ctx, session, opts.mode); err != nil {
			return err
		}
	}

	printDashboard(dashboard)
	if userID, ok := resolver.Cached(); ok {
		remindSurveys(ctx, Surveys.NewFlow(client, pending), userID)
	}
	return nil
}

// mark runs one check-in flow. A user id that was not resolved yet is
// resolved by the first attempt, so the confirmation is repeated once.
func mark(ctx context.Context, session *Attendance.Session, rawMode string) error {
	if _, err := session.Open(ctx); err != nil {
		return err
	}
	snap, err := session.AcquireLocation(ctx)
	if err != nil {
		return err
	}
	if rawMode != "" {
		mode, err := Attendance.ParseMode(rawMode)
		if err != nil {
			_ = session.Cancel()
			return err
		}
		if err := session.SetMode(mode); err != nil {
			return err
		}
		snap = session.Snapshot()
	}
	fmt.Printf("%s | ubicación: %s%s\n", snap.Mode.Label(), snap.Geofence.Status(), distanceSuffix(snap.Geofence))

	err = session.Confirm(ctx)
	if errors.Is(err, Attendance.ErrNotReady) {
		err = session.Confirm(ctx)
	}
	if err != nil {
		_ = session.Cancel()
		return err
	}
	fmt.Println(session.Snapshot().LastMessage)
	return nil
}

func distanceSuffix(r Geofence.Result) string {
	if r.DistanceMeters == nil {
		return ""
	}
	return fmt.Sprintf(" (%.0f m)", *r.DistanceMeters)
}

func printDashboard(d *Home.Dashboard) {
	st := d.State()
	fmt.Println("Horario de hoy:")
	if len(st.Schedule) == 0 {
		fmt.Println("  sin horario vigente")
	}
	for _, item := range st.Schedule {
		fmt.Printf("  %-9s %s (%s)\n", item.Hora, item.Titulo, item.Subtitulo)
	}
	if st.Estado.IsClockedIn() {
		fmt.Println("Estado: en jornada")
	} else {
		fmt.Println("Estado: fuera de jornada")
	}
	fmt.Println("Indicadores:")
	for _, ind := range d.Indicators() {
		fmt.Printf("  %-26s %5.1f%% %s\n", ind.Titulo, ind.Valor, ind.Nivel)
	}
}

// remindSurveys lists the pending surveys and remembers the first one
func remindSurveys(ctx context.Context, flow *Surveys.Flow, userID int) {
	if err := flow.LoadPending(ctx, userID); err != nil {
		return
	}
	st := flow.State()
	if len(st.Pending) == 0 {
		return
	}
	fmt.Printf("Tienes %d encuesta(s) pendiente(s):\n", len(st.Pending))
	for _, e := range st.Pending {
		fmt.Printf("  #%d %s [%s]\n", e.ID, e.Titulo, Surveys.Tipo(e))
	}
	if err := flow.Postpone(); err != nil {
		log.Printf("could not store the pending survey: %v", err)
	}
}
