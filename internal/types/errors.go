package types

import "errors"

// Sentinel errors for skiplogic operations.
var (
	// ErrInvalidLogic indicates an operator other than AND/OR.
	ErrInvalidLogic = errors.New("logic must be AND or OR")

	// ErrInvalidConditionType indicates an unknown condition type.
	ErrInvalidConditionType = errors.New("unknown condition type")

	// ErrInvalidActionType indicates an action type the editor cannot produce.
	ErrInvalidActionType = errors.New("unknown action type")

	// ErrRuleSetNotFound indicates no saved rule set has the requested name.
	ErrRuleSetNotFound = errors.New("rule set not found")

	// ErrEmptyGroupName indicates a save was attempted without a rule set name.
	ErrEmptyGroupName = errors.New("rule set name is empty")

	// ErrMalformedDocument indicates a persisted document could not be decoded.
	ErrMalformedDocument = errors.New("malformed persisted document")

	// ErrCoercionFailed indicates an answer or comparison value is not a number.
	ErrCoercionFailed = errors.New("value is not numeric")
)
