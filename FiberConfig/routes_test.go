package FiberConfig

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"MediFlow/ApiClient"
	"MediFlow/Attendance"
	"MediFlow/Configs"
	"MediFlow/Geofence"
	"MediFlow/Identity"
	"MediFlow/Models"
)

type tokenTable map[string]*auth.Token

func (t tokenTable) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := t[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid token")
}

type atWorkplace struct{ pos Geofence.Position }

func (a atWorkplace) RequestPermission(context.Context) (bool, error) { return true, nil }

func (a atWorkplace) LastKnownPosition(context.Context) (*Geofence.Position, error) {
	p := a.pos
	return &p, nil
}

func newServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	app := NewApp(Dependencies{
		DB: db,
		Config: Configs.ServerConfig{
			JWTSecret:    "secret",
			Location:     time.UTC,
			AllowOrigins: "*",
		},
		Verifier: tokenTable{
			"tok-ana": {UID: "uid-ana", Claims: map[string]interface{}{"email": "ana@clinica.pe", "name": "Ana Quispe"}},
			"tok-beto": {UID: "uid-beto", Claims: map[string]interface{}{"email": "beto@clinica.pe", "name": "Beto Ramos"}},
		},
	})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv, db
}

func TestHealthAndAuth(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	anonymous := ApiClient.New(srv.URL, nil)
	_, err = anonymous.AsistenciaActual(context.Background(), 1)
	assert.True(t, ApiClient.HasStatus(err, http.StatusUnauthorized))

	forged := ApiClient.New(srv.URL, Identity.StaticProvider{UID: "uid-ana", Token: "forged"})
	_, err = forged.AsistenciaActual(context.Background(), 1)
	assert.True(t, ApiClient.HasStatus(err, http.StatusUnauthorized))
}

func TestCheckInAndOutAgainstBackend(t *testing.T) {
	srv, db := newServer(t)
	ctx := context.Background()

	identity := Identity.StaticProvider{UID: "uid-ana", Token: "tok-ana"}
	client := ApiClient.New(srv.URL, identity)
	resolver := Identity.NewResolver(identity, client)
	tracker := Attendance.NewTracker(client, time.UTC)
	config := Attendance.Config{WorkplaceLat: -12.0464, WorkplaceLon: -77.0428, WorkplaceRadiusMeters: 100, Turno: "MAÑANA"}
	session := Attendance.NewSession(config, tracker, client, resolver,
		atWorkplace{pos: Geofence.Position{Lat: -12.0464, Lon: -77.0428}},
		Attendance.Options{Device: "test-device"})

	_, err := session.Open(ctx)
	require.NoError(t, err)
	snap, err := session.AcquireLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, Attendance.StateReadyToConfirm, snap.State)
	assert.Equal(t, Attendance.ModeEntrada, snap.Mode)

	// the first attempt only resolves and links the backend user
	assert.ErrorIs(t, session.Confirm(ctx), Attendance.ErrNotReady)
	userID, ok := resolver.Cached()
	require.True(t, ok)

	require.NoError(t, session.Confirm(ctx))
	snap = session.Snapshot()
	assert.Equal(t, Attendance.StateIdle, snap.State)
	assert.Equal(t, "Entrada registrada", snap.LastMessage)
	assert.True(t, tracker.IsClockedIn())

	var stored Models.Asistencia
	require.NoError(t, db.Where("usuario_id = ?", userID).First(&stored).Error)
	require.NotNil(t, stored.UbicacionMarcado)
	assert.Equal(t, "-12.0464,-77.0428;dist=0.0m", *stored.UbicacionMarcado)
	assert.Equal(t, "test-device", *stored.DispositivoMarcado)

	snap, err = session.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, Attendance.ModeSalida, snap.Mode)
	_, err = session.AcquireLocation(ctx)
	require.NoError(t, err)
	require.NoError(t, session.Confirm(ctx))
	assert.False(t, tracker.IsClockedIn())

	// a second salida is refused by the backend and the flow can be retried
	_, err = session.Open(ctx)
	require.NoError(t, err)
	_, err = session.AcquireLocation(ctx)
	require.NoError(t, err)
	require.NoError(t, session.SetMode(Attendance.ModeSalida))
	err = session.Confirm(ctx)
	assert.ErrorIs(t, err, Attendance.ErrSubmissionFailed)
	assert.True(t, ApiClient.HasStatus(err, http.StatusConflict))
	assert.Equal(t, Attendance.StateReadyToConfirm, session.Snapshot().State)
}

func TestTokenOnlyReachesItsOwnUsuario(t *testing.T) {
	srv, db := newServer(t)
	ctx := context.Background()

	anaUID, betoUID := "uid-ana", "uid-beto"
	ana := Models.Usuario{Nombre: "Ana", Correo: "ana@clinica.pe", UIDFirebase: &anaUID}
	beto := Models.Usuario{Nombre: "Beto", Correo: "beto@clinica.pe", UIDFirebase: &betoUID}
	require.NoError(t, db.Create(&ana).Error)
	require.NoError(t, db.Create(&beto).Error)

	asAna := ApiClient.New(srv.URL, Identity.StaticProvider{UID: anaUID, Token: "tok-ana"})
	asBeto := ApiClient.New(srv.URL, Identity.StaticProvider{UID: betoUID, Token: "tok-beto"})

	_, err := asAna.MarcarEntrada(ctx, ApiClient.MarcarEntradaRequest{IDUsuario: int(beto.ID)})
	assert.True(t, ApiClient.HasStatus(err, http.StatusForbidden), "%v", err)
	_, err = asAna.RegistrarSalida(ctx, ApiClient.RegistrarSalidaRequest{IDUsuario: int(beto.ID)})
	assert.True(t, ApiClient.HasStatus(err, http.StatusForbidden), "%v", err)
	_, err = asAna.AsistenciaActual(ctx, int(beto.ID))
	assert.True(t, ApiClient.HasStatus(err, http.StatusForbidden), "%v", err)
	_, err = asAna.Indicadores(ctx, int(beto.ID))
	assert.True(t, ApiClient.HasStatus(err, http.StatusForbidden), "%v", err)
	_, err = asAna.EncuestasPendientes(ctx, int(beto.ID))
	assert.True(t, ApiClient.HasStatus(err, http.StatusForbidden), "%v", err)
	_, err = asAna.UsuarioByUID(ctx, betoUID)
	assert.True(t, ApiClient.HasStatus(err, http.StatusForbidden), "%v", err)
	_, err = asAna.HorariosByUID(ctx, betoUID, true)
	assert.True(t, ApiClient.HasStatus(err, http.StatusForbidden), "%v", err)

	var count int64
	db.Model(&Models.Asistencia{}).Where("usuario_id = ?", beto.ID).Count(&count)
	assert.Zero(t, count)

	_, err = asBeto.MarcarEntrada(ctx, ApiClient.MarcarEntradaRequest{IDUsuario: int(beto.ID)})
	require.NoError(t, err)
	actual, err := asBeto.AsistenciaActual(ctx, int(beto.ID))
	require.NoError(t, err)
	require.NotNil(t, actual.HoraEntrada)
}
