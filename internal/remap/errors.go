package remap

import (
	"fmt"

	apperrors "github.com/resopt/pkg/errors"
)

// The pass distinguishes two error families. Structural errors
// (malformed payload, malformed initializer) are a property of one
// class's bytecode: they fail that class, leave its instruction stream
// untouched and let the rest of the pass continue. Role configuration
// errors are a property of the build setup and abort the pass before
// any class is mutated.

func malformedInitializerf(format string, args ...interface{}) error {
	return apperrors.Wrap(apperrors.CodeMalformedInitializer, "malformed static initializer", fmt.Errorf(format, args...))
}

func unknownRolef(format string, args ...interface{}) error {
	return apperrors.Wrap(apperrors.CodeUnknownRole, "unknown holder role", fmt.Errorf(format, args...))
}
