//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/protocol"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes one domain event. Sinks are registered on the
// bus and must tolerate being called from many goroutines.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Notifier publishes a domain event to every interested sink and
// returns once all of them ran.
type Notifier interface {
	Notify(ctx context.Context, e event.DomainEvent)
}

// IBus is the two tier subscription surface of the event bus.
// Subscriptions are idempotent per name and scope.
type IBus interface {
	Notifier
	SubscribeRoom(name string, roomID domain.RoomID, sink EventSink)
	SubscribeAll(name string, sink EventSink)
	UnsubscribeRoom(name string, roomID domain.RoomID)
	UnsubscribeAll(name string)
}

// IBroadcaster is the delivery surface: room fan-out and point
// delivery, both best effort with failure isolation.
type IBroadcaster interface {
	Broadcast(ctx context.Context, room domain.RoomID, env protocol.Envelope, excludeConnID string) int
	SendTo(ctx context.Context, principalID string, env protocol.Envelope) bool
}

// Authenticator turns a bearer token into a Principal, once per
// connection accept.
type Authenticator interface {
	Authenticate(token string) (domain.Principal, error)
}
