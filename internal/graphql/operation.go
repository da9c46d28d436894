package graphql

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// OperationKind distinguishes reads from writes on the wire.
type OperationKind string

const (
	KindQuery    OperationKind = "query"
	KindMutation OperationKind = "mutation"
)

// Operation is a single GraphQL request flowing through the link chain.
// The name and kind are derived from the document, so a malformed document
// is rejected before it reaches the network.
type Operation struct {
	ID        uuid.UUID
	Name      string
	Kind      OperationKind
	Document  string
	Variables map[string]any

	// Header carries per-operation request headers. The auth link sets the
	// bearer token here; a refresh-and-replay overwrites it.
	Header http.Header
}

// NewOperation parses document and returns an operation ready for dispatch.
func NewOperation(document string, variables map[string]any) (*Operation, error) {
	doc, perr := parser.ParseQuery(&ast.Source{Input: document})
	if perr != nil {
		return nil, fmt.Errorf("failed to parse operation document: %w", perr)
	}
	if len(doc.Operations) == 0 {
		return nil, fmt.Errorf("operation document defines no operations")
	}

	def := doc.Operations[0]
	var kind OperationKind
	switch def.Operation {
	case ast.Query:
		kind = KindQuery
	case ast.Mutation:
		kind = KindMutation
	default:
		return nil, fmt.Errorf("unsupported operation type %q", def.Operation)
	}

	return &Operation{
		ID:        uuid.New(),
		Name:      def.Name,
		Kind:      kind,
		Document:  document,
		Variables: variables,
		Header:    make(http.Header),
	}, nil
}

// MustOperation is NewOperation for compile-time constant documents.
func MustOperation(document string, variables map[string]any) *Operation {
	op, err := NewOperation(document, variables)
	if err != nil {
		panic(err)
	}
	return op
}

// Response is the standard GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors ErrorList       `json:"errors,omitempty"`
}

// Err returns the response errors as a single error, or nil when the
// response succeeded.
func (r *Response) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}
