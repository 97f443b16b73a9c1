package Controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"MediFlow/Models"
)

func newAsistenciaApp(db *gorm.DB, caller string) *fiber.App {
	c := NewAsistenciaController(db, lima)
	c.Now = fixedNow
	app := fiber.New()
	app.Use(withCaller(caller))
	app.Post("/asistencia/marcar", c.Marcar)
	app.Put("/asistencia/salida", c.Salida)
	app.Get("/asistencia/actual", c.Actual)
	return app
}

func TestAsistenciaDayFlow(t *testing.T) {
	db := newTestDB(t)
	u := seedUsuario(t, db, "uid-ana")
	app := newAsistenciaApp(db, "uid-ana")
	actual := "/asistencia/actual?id_usuario=" + itoa(u.ID)

	_, body := doJSON(t, app, http.MethodGet, actual, nil)
	assert.Equal(t, Models.EstadoSinMarcar, body["estado"])
	assert.Nil(t, body["hora_entrada"])

	resp, body := doJSON(t, app, http.MethodPost, "/asistencia/marcar", fiber.Map{
		"id_usuario":          u.ID,
		"ubicacion_marcado":   "-12.0464,-77.0428;dist=12.5m",
		"dispositivo_marcado": "Pixel 7",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Entrada registrada", body["message"])
	assert.Equal(t, "08:45", body["hora_entrada"])
	assert.NotZero(t, body["id_asistencia"])

	_, body = doJSON(t, app, http.MethodGet, actual, nil)
	assert.Equal(t, Models.EstadoEnJornada, body["estado"])
	assert.Equal(t, "08:45", body["hora_entrada"])

	resp, body = doJSON(t, app, http.MethodPost, "/asistencia/marcar", fiber.Map{"id_usuario": u.ID})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Ya existe una entrada registrada para hoy", body["error"])

	resp, body = doJSON(t, app, http.MethodPut, "/asistencia/salida", fiber.Map{"id_usuario": u.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Salida registrada", body["message"])

	resp, _ = doJSON(t, app, http.MethodPut, "/asistencia/salida", fiber.Map{"id_usuario": u.ID})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	_, body = doJSON(t, app, http.MethodGet, actual, nil)
	assert.Equal(t, Models.EstadoFinalizada, body["estado"])

	var stored Models.Asistencia
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "-12.0464,-77.0428;dist=12.5m", *stored.UbicacionMarcado)
	assert.Equal(t, "2025-03-10", time.Time(stored.Fecha).Format("2006-01-02"))
}

func TestAsistenciaRejections(t *testing.T) {
	db := newTestDB(t)
	u := seedUsuario(t, db, "uid-ana")
	app := newAsistenciaApp(db, "uid-ana")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		errMsg string
	}{
		{"unknown user", http.MethodPost, "/asistencia/marcar", fiber.Map{"id_usuario": 999}, fiber.StatusForbidden, "No puedes operar sobre otro usuario"},
		{"missing user id", http.MethodPost, "/asistencia/marcar", fiber.Map{}, fiber.StatusBadRequest, "Validación fallida"},
		{"bad fecha", http.MethodPost, "/asistencia/marcar", fiber.Map{"id_usuario": u.ID, "fecha": "10/03/2025"}, fiber.StatusBadRequest, "Validación fallida"},
		{"salida without entrada", http.MethodPut, "/asistencia/salida", fiber.Map{"id_usuario": u.ID}, fiber.StatusNotFound, "No hay una entrada registrada hoy"},
		{"actual without id", http.MethodGet, "/asistencia/actual", nil, fiber.StatusBadRequest, "id_usuario inválido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.errMsg, body["error"])
		})
	}
}

func TestValidationErrorNamesJSONFields(t *testing.T) {
	db := newTestDB(t)
	app := newAsistenciaApp(db, "uid-ana")

	_, body := doJSON(t, app, http.MethodPost, "/asistencia/marcar", fiber.Map{"dispositivo_marcado": "x"})
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "id_usuario")
}
