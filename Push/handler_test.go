package Push

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediFlow/Events"
)

func TestHandleHorarioAsignado(t *testing.T) {
	bus := Events.NewBus()
	defer bus.Close()
	events, cancel := bus.Subscribe(1)
	defer cancel()

	n, ok := Handler{Bus: bus}.Handle(map[string]string{
		"type":            "HORARIO_ASIGNADO",
		"hora_entrada":    "08:00",
		"hora_salida":     "17:00",
		"hora_refrigerio": "13:00",
		"dia_semana":      "LUNES",
		"turno":           "MAÑANA",
	}, "")
	require.True(t, ok)
	assert.Equal(t, "Horario asignado", n.Title)
	assert.Equal(t, "(LUNES, MAÑANA) Entrada: 08:00 • Salida: 17:00 • Refrigerio: 13:00", n.Body)

	e := <-events
	assert.Equal(t, Events.HorarioAsignado, e.Name)
}

func TestHandleHorarioActualizadoFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]string
		title string
		want  Notification
	}{
		{
			name: "no details",
			data: map[string]string{"type": "HORARIO_ACTUALIZADO"},
			want: Notification{Title: "Horario actualizado", Body: "Tu horario fue actualizado"},
		},
		{
			name:  "explicit title and day without shift",
			data:  map[string]string{"type": "HORARIO_ACTUALIZADO", "dia_semana": "MARTES", "hora_salida": "18:00"},
			title: "Cambio de horario",
			want:  Notification{Title: "Cambio de horario", Body: "(MARTES) Salida: 18:00"},
		},
		{
			name: "shift without day is ignored",
			data: map[string]string{"type": "HORARIO_ASIGNADO", "turno": "NOCHE"},
			want: Notification{Title: "Horario asignado", Body: "Se te ha asignado un nuevo horario"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Handler{}.Handle(tt.data, tt.title)
			require.True(t, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestHandleUnknownType(t *testing.T) {
	_, ok := Handler{}.Handle(map[string]string{"type": "PROMO"}, "hola")
	assert.False(t, ok)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "user_abc123", Topic("abc123"))
}
