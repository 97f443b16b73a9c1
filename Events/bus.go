package Events

import (
	"log"
	"sync"
)

// Event names shared between the push handler, the dashboard and the attendance session
const (
	HorarioAsignado   = "horario_asignado"
	AsistenciaMarcada = "asistencia_marcada"
	EncuestaPendiente = "encuesta_pendiente"
)

// DefaultBuffer matches the extra capacity the app gave its event stream
const DefaultBuffer = 8

type Event struct {
	Name string
	Data map[string]string
}

// Bus is a publish/subscribe channel scoped to one user session.
// Create one per session and pass it to the components that need it.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new listener. The returned cancel func unregisters it
// and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers the event to every subscriber without blocking.
// Subscribers whose buffer is full miss the event.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			log.Printf("events: subscriber %d is full, dropping %s", id, e.Name)
		}
	}
}

// Close unregisters every subscriber
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
