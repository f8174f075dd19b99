// Package clienttest provides a recording fake of client.Executor for tests.
package clienttest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wolfeidau/dewrangle/internal/client"
)

var _ client.Executor = (*Executor)(nil)

// Call is one recorded Execute invocation.
type Call struct {
	Operation string
	Variables map[string]any
}

// Executor answers documents by operation name with canned JSON data.
type Executor struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	calls     []Call
}

func NewExecutor() *Executor {
	return &Executor{
		responses: make(map[string][]string),
		errs:      make(map[string]error),
	}
}

// Respond queues data for the named operation. Queued responses are used in
// order; the last one is repeated once the queue is drained.
func (e *Executor) Respond(operation, data string) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses[operation] = append(e.responses[operation], data)
	return e
}

// Fail makes the named operation return err.
func (e *Executor) Fail(operation string, err error) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs[operation] = err
	return e
}

func (e *Executor) Execute(ctx context.Context, document string, variables map[string]any, out any) error {
	name := client.OperationName(document)

	e.mu.Lock()
	e.calls = append(e.calls, Call{Operation: name, Variables: variables})
	err := e.errs[name]
	queue := e.responses[name]
	var data string
	if len(queue) > 0 {
		data = queue[0]
		if len(queue) > 1 {
			e.responses[name] = queue[1:]
		}
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	if data == "" {
		return fmt.Errorf("clienttest: no response for operation %s", name)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(data), out)
}

// Calls returns every recorded call in order.
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// CallsTo returns the recorded calls for one operation.
func (e *Executor) CallsTo(operation string) []Call {
	var calls []Call
	for _, c := range e.Calls() {
		if c.Operation == operation {
			calls = append(calls, c)
		}
	}
	return calls
}

// Operations returns the operation names in call order.
func (e *Executor) Operations() []string {
	var ops []string
	for _, c := range e.Calls() {
		ops = append(ops, c.Operation)
	}
	return ops
}
