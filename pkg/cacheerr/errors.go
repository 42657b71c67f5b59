// Package cacheerr defines the cache's error taxonomy: distinct,
// caller-distinguishable error types, each carrying the offending
// identity/field/operator name rather than only a formatted message.
package cacheerr

import (
	"errors"
	"fmt"

	"github.com/northlane/recordcache/pkg/recordmodel"
)

// SchemaValidationError reports an operation referencing an undeclared
// type, key, attribute, or relationship, or a relationship used with the
// wrong kind.
type SchemaValidationError struct {
	Identity recordmodel.Identity
	Field    string // key/attribute/relationship name, empty if the violation is the type itself
	Reason   string
}

func (e *SchemaValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema validation: %s: %s", e.Identity, e.Reason)
	}
	return fmt.Sprintf("schema validation: %s.%s: %s", e.Identity, e.Field, e.Reason)
}

// RecordNotFoundError is raised by findRecord when the identity is absent.
type RecordNotFoundError struct {
	Identity recordmodel.Identity
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record not found: %s", e.Identity)
}

// QueryExpressionParseError reports an unknown operator or malformed
// pagination/sort clause in a query expression.
type QueryExpressionParseError struct {
	Reason string
}

func (e *QueryExpressionParseError) Error() string {
	return fmt.Sprintf("query expression: %s", e.Reason)
}

// OperatorNotFoundError reports a missing patch/inverse-patch/query
// operator for the given tag.
type OperatorNotFoundError struct {
	Op string
}

func (e *OperatorNotFoundError) Error() string {
	return fmt.Sprintf("no operator registered for %q", e.Op)
}

// Sentinel flags for accessor-level conditions that don't need
// structured context beyond "which primitive, which reason", for
// conditions below the patch pipeline's own typed errors.
var (
	ErrAlreadyExists = errors.New("recordcache: identity already exists in bucket")
	ErrClosed        = errors.New("recordcache: accessor is closed")
)
