package Notifications

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"firebase.google.com/go/v4/messaging"

	"MediFlow/Models"
	"MediFlow/Push"
)

// Sender is the part of the FCM client used here
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Notifier sends data messages to the per-user topics. A nil Sender turns
// every call into a logged no-op.
type Notifier struct {
	Sender Sender
}

// HorarioChanged tells the owner of h that the shift was assigned or updated
func (n Notifier) HorarioChanged(ctx context.Context, uid string, h Models.Horario, updated bool) error {
	kind, title := Push.TypeHorarioAsignado, "Horario asignado"
	if updated {
		kind, title = Push.TypeHorarioActualizado, "Horario actualizado"
	}
	data := map[string]string{
		"type":         kind,
		"id_horario":   strconv.FormatUint(uint64(h.ID), 10),
		"dia_semana":   h.DiaSemana,
		"turno":        h.Turno,
		"hora_entrada": h.HoraEntrada,
		"hora_salida":  h.HoraSalida,
	}
	if h.HoraRefrigerio != nil {
		data["hora_refrigerio"] = *h.HoraRefrigerio
	}
	return n.send(ctx, uid, title, data)
}

func (n Notifier) SurveyPending(ctx context.Context, uid string, e Models.Encuesta) error {
	return n.send(ctx, uid, "Encuesta pendiente", map[string]string{
		"type":        Push.TypeEncuestaPendiente,
		"id_encuesta": strconv.FormatUint(uint64(e.ID), 10),
		"titulo":      e.Titulo,
	})
}

func (n Notifier) send(ctx context.Context, uid, title string, data map[string]string) error {
	if uid == "" {
		return fmt.Errorf("user has no firebase uid")
	}
	// the client builds the body from data
	body, _ := Push.Handler{}.Handle(data, title)

	if n.Sender == nil {
		log.Printf("push disabled, skipping %s for %s", data["type"], uid)
		return nil
	}
	message := &messaging.Message{
		Topic: Push.Topic(uid),
		Data:  data,
		Notification: &messaging.Notification{
			Title: body.Title,
			Body:  body.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "mediflow_notifications",
				Sound:     "default",
			},
		},
	}
	response, err := n.Sender.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending Firebase message: %w", err)
	}
	log.Printf("Successfully sent %s to %s: %s", data["type"], message.Topic, response)
	return nil
}
