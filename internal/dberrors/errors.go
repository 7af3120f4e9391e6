// Package dberrors implements the nested, composable error taxonomy
// spec.md §7 describes: structured leaf kinds carrying the data needed to
// render one sentence, and parent kinds that wrap a child and prefix its
// message with context. Composition is a tagged Kind plus an optional
// wrapped cause, not a class hierarchy.
//
// Grounded on original_source/src/db_error.h (a chain of C++ mixin
// templates producing the same layered sentences) and on the teacher's
// %w-wrapping idiom (pager/storage.go, pager/filelock.go), which this
// package's Unwrap method keeps compatible with errors.Is/errors.As.
package dberrors

import (
	"fmt"
)

// Kind identifies one node of the error taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	KindParseFailed
	KindCreateDBFailed
	KindDropDBFailed
	KindUseDBFailed
	KindPathExisted
	KindRemoveDBFailed
	KindDBNotExists
	KindDBNotOpened
	KindCreateTableFailed
	KindFieldNameTooLong
	KindUnsupportedType
	KindFieldLengthRequired
	KindDuplicateFieldName
	KindInvalidPrimaryKey
	KindForeignKeyFailed
	KindPrimaryKeyRequired
	KindTypesDismatch
	KindLengthsDismatch
	KindDropTableFailed
	KindTableReferenced
	KindRemoveTableFailed
	KindCreateIndexFailed
	KindDropIndexFailed
	KindOpenTableFailed
	KindInvalidFieldName
	KindInsertRecordFailed
	KindWrongTupleSize
	KindLiteralParseFailed
	KindLiteralOutOfRange
	KindNotNullExpected
	KindDuplicatePrimaryKey
	KindCheckConstraintFailed
	KindReferencedNotExists
	KindDeleteRecordFailed
	KindRecordReferenced
	KindUpdateRecordFailed
	KindSimpleSelectFailed
	KindAggregateFailed
	KindBothGroupAndOrder
	KindComplexSelectFailed
	KindDuplicateTableName
	KindInvalidCondition
	KindInvalidConditionOperator
	KindInvalidConditionOperand
)

// Error is one node in the taxonomy: a Kind, optional structured payload,
// and an optional wrapped cause whose sentence Render appends after this
// node's sentence (mirroring the C++ source's getInfo() chaining).
type Error struct {
	Kind  Kind
	Cause error

	Table, Field, Literal       string
	RefTable, RefField          string
	Value                       string
	Operator                    string
	Operand                     string
	Expected, Got               string
}

func (e *Error) Error() string {
	return e.Render()
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

func quoted(s string) string {
	return `"` + s + `"`
}

// Render produces the single human-readable sentence spec.md §7
// describes: this node's sentence first, then a wrapped cause's own
// rendered sentence.
func (e *Error) Render() string {
	if e.Cause != nil {
		return e.sentence() + " " + e.Cause.Error()
	}
	return e.sentence()
}

func (e *Error) sentence() string {
	switch e.Kind {
	case KindParseFailed:
		return "Failed to parse statement."
	case KindCreateDBFailed:
		return fmt.Sprintf("Failed to create database %s.", quoted(e.Table))
	case KindDropDBFailed:
		return fmt.Sprintf("Failed to drop database %s.", quoted(e.Table))
	case KindUseDBFailed:
		return fmt.Sprintf("Failed to use database %s.", quoted(e.Table))
	case KindPathExisted:
		return "Path already exists."
	case KindRemoveDBFailed:
		return "Failed to remove database directory."
	case KindDBNotExists:
		return fmt.Sprintf("Database %s not exists.", quoted(e.Table))
	case KindDBNotOpened:
		return "No database is opened."
	case KindCreateTableFailed:
		return fmt.Sprintf("Failed to create table %s.", quoted(e.Table))
	case KindFieldNameTooLong:
		return fmt.Sprintf("Field name %s too long.", quoted(e.Field))
	case KindUnsupportedType:
		return fmt.Sprintf("Unsupported type %s.", quoted(e.Got))
	case KindFieldLengthRequired:
		return fmt.Sprintf("Field %s requires an explicit length.", quoted(e.Field))
	case KindDuplicateFieldName:
		return fmt.Sprintf("Duplicate field name %s.", quoted(e.Field))
	case KindInvalidPrimaryKey:
		return fmt.Sprintf("Invalid primary key field name %s.", quoted(e.Field))
	case KindForeignKeyFailed:
		return "Foreign key constraint failed."
	case KindPrimaryKeyRequired:
		return fmt.Sprintf("Referenced field %s is not a primary key.", quoted(e.RefField))
	case KindTypesDismatch:
		return fmt.Sprintf("Foreign key field %s type does not match referenced field %s.", quoted(e.Field), quoted(e.RefField))
	case KindLengthsDismatch:
		return fmt.Sprintf("Foreign key field %s length does not match referenced field %s.", quoted(e.Field), quoted(e.RefField))
	case KindDropTableFailed:
		return fmt.Sprintf("Failed to drop table %s.", quoted(e.Table))
	case KindTableReferenced:
		return fmt.Sprintf("Table %s is referenced by table %s.", quoted(e.Table), quoted(e.RefTable))
	case KindRemoveTableFailed:
		return fmt.Sprintf("Failed to remove table files for %s.", quoted(e.Table))
	case KindCreateIndexFailed:
		return fmt.Sprintf("Failed to create index on %s(%s).", quoted(e.Table), quoted(e.Field))
	case KindDropIndexFailed:
		return fmt.Sprintf("Failed to drop index on %s(%s).", quoted(e.Table), quoted(e.Field))
	case KindOpenTableFailed:
		return fmt.Sprintf("Failed when opening table %s.", quoted(e.Table))
	case KindInvalidFieldName:
		return fmt.Sprintf("Invalid field name %s.", quoted(e.Field))
	case KindInsertRecordFailed:
		return fmt.Sprintf("Failed to insert record into %s.", quoted(e.Table))
	case KindWrongTupleSize:
		return fmt.Sprintf("Expected %s values, got %s.", e.Expected, e.Got)
	case KindLiteralParseFailed:
		return fmt.Sprintf("Failed when parsing literal %s.", quoted(e.Literal))
	case KindLiteralOutOfRange:
		return fmt.Sprintf("Literal %s out of range.", quoted(e.Literal))
	case KindNotNullExpected:
		return fmt.Sprintf("Not null expected for field %s.", quoted(e.Field))
	case KindDuplicatePrimaryKey:
		return fmt.Sprintf("Duplicate primary key value %s.", quoted(e.Value))
	case KindCheckConstraintFailed:
		return "Check constraint failed."
	case KindReferencedNotExists:
		return fmt.Sprintf("Value %s not exists in referenced table %s.", quoted(e.Value), quoted(e.RefTable))
	case KindDeleteRecordFailed:
		return fmt.Sprintf("Failed to delete record from %s.", quoted(e.Table))
	case KindRecordReferenced:
		return fmt.Sprintf("Record is referenced in table %s.", quoted(e.RefTable))
	case KindUpdateRecordFailed:
		return fmt.Sprintf("Failed to update record in %s.", quoted(e.Table))
	case KindSimpleSelectFailed:
		return "Failed to execute SELECT."
	case KindAggregateFailed:
		return "Failed to compute aggregate."
	case KindBothGroupAndOrder:
		return "ORDER BY cannot be combined with GROUP BY."
	case KindComplexSelectFailed:
		return "Failed to execute join SELECT."
	case KindDuplicateTableName:
		return fmt.Sprintf("Duplicate table name %s in FROM clause.", quoted(e.Table))
	case KindInvalidCondition:
		return "Invalid condition."
	case KindInvalidConditionOperator:
		return fmt.Sprintf("Invalid condition operator %s.", quoted(e.Operator))
	case KindInvalidConditionOperand:
		return fmt.Sprintf("Invalid condition operand %s.", quoted(e.Operand))
	}
	return "Error."
}

// Wrap returns a new Error of kind wrapping cause, so a caller can layer
// e.g. InsertRecordFailed over DuplicatePrimaryKey the way spec.md §7
// says parent kinds prefix a child's message.
func Wrap(kind Kind, cause error, fill func(*Error)) *Error {
	e := &Error{Kind: kind, Cause: cause}
	if fill != nil {
		fill(e)
	}
	return e
}

// New returns a leaf Error of kind with no wrapped cause.
func New(kind Kind, fill func(*Error)) *Error {
	return Wrap(kind, nil, fill)
}

// Is reports whether err (or anything it wraps) carries the given Kind,
// letting callers branch on taxonomy without string matching.
func Is(err error, kind Kind) bool {
	for err != nil {
		if de, ok := err.(*Error); ok {
			if de.Kind == kind {
				return true
			}
			err = de.Cause
			continue
		}
		return false
	}
	return false
}
