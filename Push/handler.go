package Push

import (
	"log"
	"strings"

	"MediFlow/Events"
)

// Message types sent by the backend in the data payload
const (
	TypeHorarioAsignado    = "HORARIO_ASIGNADO"
	TypeHorarioActualizado = "HORARIO_ACTUALIZADO"
	TypeEncuestaPendiente  = "ENCUESTA_PENDIENTE"
)

type Notification struct {
	Title string
	Body  string
}

// Topic is the per-user FCM topic
func Topic(uid string) string {
	return "user_" + uid
}

type Handler struct {
	Bus *Events.Bus
}

// Handle turns an incoming data payload into a user-visible notification and
// signals listeners. title is the notification title sent along with the
// payload, if any. Unsupported types return false.
func (h Handler) Handle(data map[string]string, title string) (Notification, bool) {
	kind := data["type"]
	switch kind {
	case TypeHorarioAsignado, TypeHorarioActualizado:
		n := horarioNotification(kind, data, title)
		h.publish(Events.HorarioAsignado, data)
		return n, true
	case TypeEncuestaPendiente:
		if title == "" {
			title = "Encuesta pendiente"
		}
		body := "Tienes una encuesta pendiente por responder"
		if t := strings.TrimSpace(data["titulo"]); t != "" {
			body = t
		}
		h.publish(Events.EncuestaPendiente, data)
		return Notification{Title: title, Body: body}, true
	}
	log.Printf("push: unsupported message type %q", kind)
	return Notification{}, false
}

func (h Handler) publish(name string, data map[string]string) {
	if h.Bus == nil {
		return
	}
	h.Bus.Publish(Events.Event{Name: name, Data: data})
}

func horarioNotification(kind string, data map[string]string, title string) Notification {
	assigned := kind == TypeHorarioAsignado
	if title == "" {
		if assigned {
			title = "Horario asignado"
		} else {
			title = "Horario actualizado"
		}
	}

	var parts []string
	for _, f := range []struct{ label, key string }{
		{"Entrada", "hora_entrada"},
		{"Salida", "hora_salida"},
		{"Refrigerio", "hora_refrigerio"},
	} {
		if v := strings.TrimSpace(data[f.key]); v != "" {
			parts = append(parts, f.label+": "+v)
		}
	}
	body := strings.Join(parts, " • ")
	if body == "" {
		if assigned {
			body = "Se te ha asignado un nuevo horario"
		} else {
			body = "Tu horario fue actualizado"
		}
	}

	dia := strings.TrimSpace(data["dia_semana"])
	if dia != "" {
		prefix := dia
		if turno := strings.TrimSpace(data["turno"]); turno != "" {
			prefix += ", " + turno
		}
		body = "(" + prefix + ") " + body
	}
	return Notification{Title: title, Body: body}
}
