package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventAppointmentCreated       = "appointment_created"
	EventAppointmentUpdated       = "appointment_updated"
	EventAppointmentDeleted       = "appointment_deleted"
	EventAppointmentCompleted     = "appointment_completed"
	EventAppointmentCancelled     = "appointment_cancelled"
	EventAppointmentStatusChanged = "appointment_status_changed"

	EventClientCreated = "client_created"
	EventClientUpdated = "client_updated"
	EventClientDeleted = "client_deleted"

	EventWorkerCreated = "worker_created"
	EventWorkerUpdated = "worker_updated"
	EventWorkerDeleted = "worker_deleted"
)

// AllTypes lists every event the dashboard publishes.
var AllTypes = []string{
	EventAppointmentCreated, EventAppointmentUpdated, EventAppointmentDeleted,
	EventAppointmentCompleted, EventAppointmentCancelled, EventAppointmentStatusChanged,
	EventClientCreated, EventClientUpdated, EventClientDeleted,
	EventWorkerCreated, EventWorkerUpdated, EventWorkerDeleted,
}

// Entity names carried in MutationPayload.
const (
	EntityAppointment = "appointment"
	EntityClient      = "client"
	EntityWorker      = "worker"
)

// MutationPayload describes one change made through the dashboard.
type MutationPayload struct {
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entity_id"`
	Label     string    `json:"label,omitempty"`
	Status    string    `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	ChangedBy string    `json:"changed_by,omitempty"`
	At        time.Time `json:"at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// ErrorHandler receives handler failures; the bus itself never fails a publish
// because of a subscriber.
type ErrorHandler func(event *Event, err error)

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	onError     ErrorHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError sets the callback for failing handlers.
func (b *EventBus) OnError(h ErrorHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = h
}

// Subscribe registers a handler for the given event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	ev, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&ev)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// DecodeMutation reads a MutationPayload back from an event.
func DecodeMutation(ev *Event) (MutationPayload, error) {
	var p MutationPayload
	err := json.Unmarshal(ev.Payload, &p)
	return p, err
}
