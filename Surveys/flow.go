package Surveys

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"MediFlow/ApiClient"
)

var (
	ErrNoSurvey        = errors.New("no survey loaded")
	ErrIncomplete      = errors.New("every question needs an answer")
	ErrAlreadyAnswered = errors.New("survey already answered today")
)

type Service interface {
	EncuestasPendientes(ctx context.Context, userID int) ([]ApiClient.Encuesta, error)
	Encuesta(ctx context.Context, id, userID int) (ApiClient.Encuesta, error)
	ResponderEncuesta(ctx context.Context, id int, body ApiClient.ResponderEncuestaRequest) (ApiClient.MessageResponse, error)
}

// PendingFlag persists a postponed survey
type PendingFlag interface {
	SetPending(pending bool, id *string) error
	Clear() error
}

type ExitDecision int

const (
	ExitAllowed ExitDecision = iota
	ExitNeedsConfirmation
)

type State struct {
	Pending []ApiClient.Encuesta
	Current *ApiClient.Encuesta
	Answers map[int]string
	Err     error
}

// Flow walks the user through the pending surveys, head first
type Flow struct {
	service Service
	flag    PendingFlag

	mu      sync.Mutex
	pending []ApiClient.Encuesta
	current *ApiClient.Encuesta
	answers map[int]string
	err     error
}

func NewFlow(service Service, flag PendingFlag) *Flow {
	return &Flow{service: service, flag: flag, answers: map[int]string{}}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	answers := make(map[int]string, len(f.answers))
	for k, v := range f.answers {
		answers[k] = v
	}
	var current *ApiClient.Encuesta
	if f.current != nil {
		c := *f.current
		current = &c
	}
	return State{
		Pending: append([]ApiClient.Encuesta(nil), f.pending...),
		Current: current,
		Answers: answers,
		Err:     f.err,
	}
}

// LoadPending fetches the pending list and the details of the first survey
func (f *Flow) LoadPending(ctx context.Context, userID int) error {
	list, err := f.service.EncuestasPendientes(ctx, userID)
	if err != nil {
		log.Printf("surveys: loading pending for user %d: %v", userID, err)
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.pending = list
	f.err = nil
	f.mu.Unlock()

	if len(list) == 0 {
		f.setCurrent(nil)
		return nil
	}
	return f.loadDetails(ctx, list[0].ID, userID)
}

func (f *Flow) loadDetails(ctx context.Context, id, userID int) error {
	detail, err := f.service.Encuesta(ctx, id, userID)
	if err != nil {
		log.Printf("surveys: loading survey %d: %v", id, err)
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		return err
	}
	f.setCurrent(&detail)
	return nil
}

func (f *Flow) setCurrent(e *ApiClient.Encuesta) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = e
	f.answers = map[int]string{}
}

func (f *Flow) SetAnswer(preguntaID int, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers[preguntaID] = value
}

// Complete is true when every question has a non-blank answer. A survey
// without questions is never complete.
func (f *Flow) Complete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completeLocked()
}

func (f *Flow) completeLocked() bool {
	if f.current == nil || len(f.current.Preguntas) == 0 {
		return false
	}
	for _, p := range f.current.Preguntas {
		if strings.TrimSpace(f.answers[p.ID]) == "" {
			return false
		}
	}
	return true
}

func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil || answeredToday(f.current) {
		return false
	}
	return f.completeLocked()
}

// Submit sends the answers of the current survey, then moves to the next
// pending one. When none remain the postponed flag is cleared.
func (f *Flow) Submit(ctx context.Context, userID int) error {
	f.mu.Lock()
	if f.current == nil {
		f.mu.Unlock()
		return ErrNoSurvey
	}
	if answeredToday(f.current) {
		f.mu.Unlock()
		return ErrAlreadyAnswered
	}
	if !f.completeLocked() {
		f.mu.Unlock()
		return ErrIncomplete
	}
	id := f.current.ID
	items := make([]ApiClient.RespuestaItem, 0, len(f.current.Preguntas))
	for _, p := range f.current.Preguntas {
		items = append(items, ApiClient.RespuestaItem{PreguntaID: p.ID, Respuesta: strings.TrimSpace(f.answers[p.ID])})
	}
	f.mu.Unlock()

	_, err := f.service.ResponderEncuesta(ctx, id, ApiClient.ResponderEncuestaRequest{IDUsuario: userID, Respuestas: items})
	if err != nil {
		if ApiClient.HasStatus(err, 409) {
			return fmt.Errorf("%w: %w", ErrAlreadyAnswered, err)
		}
		return fmt.Errorf("submit survey %d: %w", id, err)
	}

	f.mu.Lock()
	if len(f.pending) > 0 {
		f.pending = f.pending[1:]
	}
	remaining := append([]ApiClient.Encuesta(nil), f.pending...)
	f.mu.Unlock()

	if len(remaining) == 0 {
		f.setCurrent(nil)
		if f.flag != nil {
			if err := f.flag.Clear(); err != nil {
				log.Printf("surveys: clearing pending flag: %v", err)
			}
		}
		return nil
	}
	// the answer is stored even if the next survey fails to load
	_ = f.loadDetails(ctx, remaining[0].ID, userID)
	return nil
}

// RequestExit reports whether the user may leave without answering
func (f *Flow) RequestExit() ExitDecision {
	if f.Complete() {
		return ExitAllowed
	}
	return ExitNeedsConfirmation
}

// Postpone records the current survey as pending for later
func (f *Flow) Postpone() error {
	f.mu.Lock()
	var id *string
	if f.current != nil {
		s := strconv.Itoa(f.current.ID)
		id = &s
	}
	f.mu.Unlock()
	if f.flag == nil {
		return nil
	}
	return f.flag.SetPending(true, id)
}

// Tipo is the category of a survey, explicit or inferred from its text
func Tipo(e ApiClient.Encuesta) string {
	if e.Tipo != nil {
		if t := NormalizeTipo(*e.Tipo); t != "" {
			return t
		}
	}
	desc := ""
	if e.Descripcion != nil {
		desc = *e.Descripcion
	}
	return InferTipo(e.Titulo, desc)
}

func answeredToday(e *ApiClient.Encuesta) bool {
	return e.RespondidaHoy != nil && *e.RespondidaHoy
}
