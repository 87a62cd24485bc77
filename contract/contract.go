//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"casechat/domain"
	"casechat/domain/event"
	"context"
	"reflect"
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

// EventSink is one live session's receiving end. Consume must not block
// longer than the given context allows.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the connection registry contract. All operations are safe
// under arbitrary concurrent callers; an empty SessionsFor means offline.
type IRegistry interface {
	Register(session domain.Session, sink EventSink)
	Unregister(sessionID string) (domain.Session, bool)
	SessionsFor(userID string) []string
	SinksFor(userID string) []EventSink
	AllSinks() []EventSink
	IsOnline(userID string) bool
}
