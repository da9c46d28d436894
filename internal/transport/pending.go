package transport

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopstream/storefront-sync/internal/graphql"
)

// OpState is the lifecycle state of a dispatched operation.
type OpState string

const (
	StateInFlight   OpState = "in-flight"
	StateCompleted  OpState = "completed"
	StateFailed     OpState = "failed"
	StateFailedAuth OpState = "failed-auth"
)

// PendingOperation tracks one dispatched operation until it reaches a
// terminal state. RetryCount never exceeds the configured max attempts.
type PendingOperation struct {
	OperationID uuid.UUID
	Kind        graphql.OperationKind
	State       OpState
	RetryCount  int
}

// pendingSet is the registry of in-flight operations. Records are created
// on dispatch and destroyed once terminal.
type pendingSet struct {
	mu  sync.Mutex
	ops map[uuid.UUID]*PendingOperation
}

func newPendingSet() *pendingSet {
	return &pendingSet{ops: make(map[uuid.UUID]*PendingOperation)}
}

func (p *pendingSet) start(op *graphql.Operation) *PendingOperation {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := &PendingOperation{
		OperationID: op.ID,
		Kind:        op.Kind,
		State:       StateInFlight,
	}
	p.ops[op.ID] = rec
	return rec
}

func (p *pendingSet) retry(rec *PendingOperation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec.RetryCount++
}

func (p *pendingSet) finish(rec *PendingOperation, state OpState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec.State = state
	delete(p.ops, rec.OperationID)
}

func (p *pendingSet) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ops)
}
