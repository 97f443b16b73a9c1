package Controllers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"MediFlow/Models"
)

func newEmployeeApp(db *gorm.DB, caller string) *fiber.App {
	asistencia := NewAsistenciaController(db, lima)
	asistencia.Now = fixedNow
	encuestas := NewEncuestaController(db, lima)
	encuestas.Now = fixedNow
	horarios := NewHorarioController(db, nil)
	usuarios := NewUsuarioController(db, nil)

	app := fiber.New()
	app.Use(withCaller(caller))
	app.Post("/asistencia/marcar", asistencia.Marcar)
	app.Put("/asistencia/salida", asistencia.Salida)
	app.Get("/asistencia/actual", asistencia.Actual)
	app.Get("/encuestas/pendientes/:id_usuario", encuestas.Pendientes)
	app.Get("/encuestas/indicadores/:id_usuario", encuestas.Indicadores)
	app.Get("/encuestas/:id", encuestas.Get)
	app.Post("/encuestas/:id/responder", encuestas.Responder)
	app.Get("/horarios/by-uid/:uid", horarios.ByUID)
	app.Get("/usuarios/by-uid/:uid", usuarios.ByUID)
	return app
}

func TestEmployeeCannotActOnAnotherUsuario(t *testing.T) {
	db := newTestDB(t)
	ana := seedUsuario(t, db, "uid-ana")
	beto := seedUsuario(t, db, "uid-beto")
	bienestar, _ := seedEncuestas(t, db)
	entrada := "07:58"
	require.NoError(t, db.Create(&Models.Asistencia{UsuarioID: beto.ID, Fecha: Models.Day(fixedNow(), lima), HoraEntrada: &entrada}).Error)

	app := newEmployeeApp(db, "uid-ana")
	encuesta := "/encuestas/" + itoa(bienestar.ID)
	answer := []fiber.Map{{"pregunta_id": preguntaByOrden(bienestar, 2).ID, "respuesta": "4"}}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"marcar", http.MethodPost, "/asistencia/marcar", fiber.Map{"id_usuario": beto.ID}},
		{"salida", http.MethodPut, "/asistencia/salida", fiber.Map{"id_usuario": beto.ID}},
		{"actual", http.MethodGet, "/asistencia/actual?id_usuario=" + itoa(beto.ID), nil},
		{"pendientes", http.MethodGet, "/encuestas/pendientes/" + itoa(beto.ID), nil},
		{"indicadores", http.MethodGet, "/encuestas/indicadores/" + itoa(beto.ID), nil},
		{"encuesta detail", http.MethodGet, encuesta + "?id_usuario=" + itoa(beto.ID), nil},
		{"responder", http.MethodPost, encuesta + "/responder", fiber.Map{"id_usuario": beto.ID, "respuestas": answer}},
		{"horarios", http.MethodGet, "/horarios/by-uid/uid-beto", nil},
		{"usuario", http.MethodGet, "/usuarios/by-uid/uid-beto", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
			assert.Equal(t, "No puedes operar sobre otro usuario", body["error"])
		})
	}

	var stored Models.Asistencia
	require.NoError(t, db.Where("usuario_id = ?", beto.ID).First(&stored).Error)
	assert.Nil(t, stored.HoraSalida)
	var respuestas int64
	db.Model(&Models.Respuesta{}).Where("usuario_id = ?", beto.ID).Count(&respuestas)
	assert.Zero(t, respuestas)

	// the same routes work for the caller's own id
	resp, _ := doJSON(t, app, http.MethodPost, "/asistencia/marcar", fiber.Map{"id_usuario": ana.ID})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/encuestas/indicadores/"+itoa(ana.ID), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/usuarios/by-uid/uid-ana", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCallerWithoutUsuarioIsForbidden(t *testing.T) {
	db := newTestDB(t)
	beto := seedUsuario(t, db, "uid-beto")

	resp, _ := doJSON(t, newEmployeeApp(db, "uid-sin-registro"), http.MethodPost, "/asistencia/marcar", fiber.Map{"id_usuario": beto.ID})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := doJSON(t, newEmployeeApp(db, ""), http.MethodPost, "/asistencia/marcar", fiber.Map{"id_usuario": beto.ID})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No autenticado", body["error"])

	var count int64
	db.Model(&Models.Asistencia{}).Count(&count)
	assert.Zero(t, count)
}
