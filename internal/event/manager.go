package event

import (
	"sync"

	"go.uber.org/zap"
)

// Emitter is the narrow interface the ledgers and the settlement engine
// publish through. The default implementation fans out via the global
// listener list; tests substitute a recording emitter.
type Emitter interface {
	Emit(eventType Type, msg interface{})
}

type NoopEmitter struct{}

func (NoopEmitter) Emit(Type, interface{}) {}

type ManagerEmitter struct{}

func (ManagerEmitter) Emit(eventType Type, msg interface{}) {
	EmitEvent(eventType, msg)
}

var (
	mu        sync.RWMutex
	listeners = make([]*listener, 0)
)

type listener struct {
	eventType Type
	channel   chan interface{}
}

func AddEventListener(eventType Type, callback func(msg interface{})) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")

	l := &listener{
		eventType: eventType,
		channel:   make(chan interface{}, 16),
	}

	mu.Lock()
	listeners = append(listeners, l)
	mu.Unlock()

	go func() {
		for msg := range l.channel {
			callback(msg)
		}
	}()
}

func EmitEvent(eventType Type, msg interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if len(listeners) == 0 {
		zap.L().Debug("No event listeners available")
	}
	// Delivery goes straight into the buffered channel so two events of the
	// same type reach a listener in emit order.
	for _, l := range listeners {
		if l.eventType == eventType {
			zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: Emitting event")
			l.channel <- msg
		}
	}
}
