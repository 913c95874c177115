// Package notify provides the in-process publish/subscribe bus the detection
// engines emit to. Subscribers (alerting pipelines, SOAR automations, UI
// layers) register callbacks per topic; the engines never know what a
// subscriber does with a match.
package notify

import (
	"sync"
	"time"

	"argus/util/goroutine"

	"go.uber.org/zap"
)

// Topics published by the detection engines.
const (
	TopicCorrelationMatch = "correlation-match"
	TopicAlert            = "alert"
	TopicEnrichRequest    = "enrich-request"
	TopicBlockRequest     = "block-request"
	TopicIsolateRequest   = "isolate-request"
	TopicCustomAction     = "custom-action"
	TopicRuleAdded        = "rule-added"
	TopicRuleUpdated      = "rule-updated"
	TopicRuleRemoved      = "rule-removed"
)

// Message is a typed notification published on the bus.
type Message struct {
	Topic     string
	Timestamp time.Time
	Payload   interface{}
}

// Handler consumes a published message. Handlers must not block for long;
// slow consumers delay other handlers on the same message, not the engines.
type Handler func(Message)

// maxConcurrentDeliveries caps the dispatch goroutines spawned by Publish.
// Past the cap the publisher delivers inline, trading a little latency in
// the hot path for a hard bound during alert storms.
const maxConcurrentDeliveries = 64

// Bus is a minimal in-process pub/sub fan-out. Publish is fire-and-forget
// from the caller's perspective: dispatch happens on a separate goroutine
// and handler panics are recovered and logged. In-flight deliveries are
// bounded by maxConcurrentDeliveries.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.SugaredLogger
	wg       sync.WaitGroup
	sem      chan struct{}
}

// NewBus creates an empty bus.
func NewBus(logger *zap.SugaredLogger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
		sem:      make(chan struct{}, maxConcurrentDeliveries),
	}
}

// Subscribe registers a handler for a topic. Handlers registered for the
// same topic are invoked in registration order.
func (b *Bus) Subscribe(topic string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers a payload to every subscriber of the topic. Delivery
// normally happens asynchronously; when maxConcurrentDeliveries dispatch
// goroutines are already in flight the publisher delivers inline instead of
// spawning another.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	subs := b.handlers[topic]
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	msg := Message{Topic: topic, Timestamp: time.Now().UTC(), Payload: payload}

	b.wg.Add(1)
	select {
	case b.sem <- struct{}{}:
		go func() {
			defer b.wg.Done()
			defer func() { <-b.sem }()
			defer goroutine.Recover("notify-bus", b.logger)
			for _, h := range subs {
				h(msg)
			}
		}()
	default:
		func() {
			defer b.wg.Done()
			defer goroutine.Recover("notify-bus", b.logger)
			for _, h := range subs {
				h(msg)
			}
		}()
	}
}

// Wait blocks until all in-flight deliveries complete. Used by tests and
// graceful shutdown.
func (b *Bus) Wait() {
	b.wg.Wait()
}
