// Package gqldoc inspects GraphQL documents without a schema.
package gqldoc

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Info describes the operation a document would execute.
type Info struct {
	Name string
	// Type is "query", "mutation" or "subscription".
	Type string
}

// Inspect parses query and returns the operation selected by operationName,
// or the single operation when operationName is empty.
func Inspect(query, operationName string) (Info, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return Info{}, fmt.Errorf("parse graphql document: %w", err)
	}
	if len(doc.Operations) == 0 {
		return Info{}, fmt.Errorf("graphql document has no operations")
	}

	if operationName == "" {
		if len(doc.Operations) > 1 {
			return Info{}, fmt.Errorf("graphql document has %d operations, operation name required", len(doc.Operations))
		}
		op := doc.Operations[0]
		return Info{Name: op.Name, Type: string(op.Operation)}, nil
	}

	op := doc.Operations.ForName(operationName)
	if op == nil {
		return Info{}, fmt.Errorf("operation %q not found in document", operationName)
	}
	return Info{Name: op.Name, Type: string(op.Operation)}, nil
}

// IsSubscription reports whether info describes a subscription.
func (i Info) IsSubscription() bool {
	return i.Type == string(ast.Subscription)
}

// OperationName returns the name of the operation in query, or "anonymous"
// when the document is unnamed or cannot be parsed.
func OperationName(query string) string {
	info, err := Inspect(query, "")
	if err != nil || info.Name == "" {
		return "anonymous"
	}
	return info.Name
}
