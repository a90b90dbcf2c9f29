package errors

import "fmt"

func InvalidParamsErr(err error) error {
	return E(Invalid, "invalid params", err)
}

func InvalidBodyErr(err error) error {
	return E(Invalid, "invalid request body", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return E(Invalid, "validation failed", ve.Err())
}

// NotFoundErr returns a formatted error for a missing record
func NotFoundErr(entity, id string) error {
	return E(NotFound, fmt.Sprintf("%s %s not found", entity, id), nil)
}

// ForbiddenErr returns a formatted error for an actor that may not act on a record
func ForbiddenErr(actorID, what string) error {
	return E(Forbidden, fmt.Sprintf("actor %s may not %s", actorID, what), nil)
}

// ConflictErr returns a formatted error for a failed optimistic version check
func ConflictErr(entity, id string, version int64) error {
	return E(Conflict, fmt.Sprintf("%s %s was modified concurrently (expected version %d)", entity, id, version), nil)
}

// InternalErr wraps a backing store or transport failure
func InternalErr(op string, err error) error {
	return E(Internal, op, err)
}
