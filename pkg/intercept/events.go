package intercept

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ericmann/firebreak/pkg/classify"
	"github.com/ericmann/firebreak/pkg/policy/engine"
)

// EventKind identifies a pipeline stage event.
type EventKind string

const (
	// EventPromptReceived fires when a prompt enters the pipeline.
	EventPromptReceived EventKind = "prompt_received"

	// EventClassified fires after intent classification.
	EventClassified EventKind = "classified"

	// EventEvaluated fires after policy evaluation.
	EventEvaluated EventKind = "evaluated"

	// EventResponse fires after the forwarding stage on the allow path,
	// whether or not the downstream call succeeded.
	EventResponse EventKind = "response"

	// EventBlocked fires when a request is blocked.
	EventBlocked EventKind = "blocked"

	// EventAlert fires once per alert target carried by the evaluation.
	EventAlert EventKind = "alert"
)

// Event is one pipeline stage notification. Fields are populated according
// to the kind: Prompt is always set; Classification from EventClassified
// onward; Evaluation from EventEvaluated onward; AlertTarget only on
// EventAlert.
type Event struct {
	Kind           EventKind
	Timestamp      time.Time
	Prompt         string
	Classification *classify.Result
	Evaluation     *engine.Evaluation
	AlertTarget    string
}

// Handler consumes pipeline events. Handlers run synchronously on the
// request goroutine in subscription order; they must be fast and must not
// block on external I/O.
type Handler func(Event)

// Bus is the typed publish/subscribe mechanism for pipeline observers.
// Subscribers observe each request's events exactly once, in pipeline
// order. A panicking subscriber is isolated: the panic is recovered and
// logged, and the pipeline continues.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
	all      []Handler
	logger   *slog.Logger
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventKind][]Handler),
		logger:   slog.Default().With("component", "intercept.bus"),
	}
}

// Subscribe registers a handler for one event kind.
func (b *Bus) Subscribe(kind EventKind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// SubscribeAll registers a handler for every event kind.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers an event to all matching handlers, synchronously and in
// subscription order. Handler panics are recovered so observers can never
// abort the pipeline.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	kindHandlers := b.handlers[event.Kind]
	allHandlers := b.all
	b.mu.RUnlock()

	for _, h := range kindHandlers {
		b.deliver(h, event)
	}
	for _, h := range allHandlers {
		b.deliver(h, event)
	}
}

func (b *Bus) deliver(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				"event", string(event.Kind),
				"panic", r,
			)
		}
	}()
	h(event)
}
