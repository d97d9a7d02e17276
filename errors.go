package evalbox

import "errors"

// Sentinel errors returned by Evaluate. Callers should test with errors.Is
// as returned errors wrap these with detail about the offending parameter.
var (
	// ErrInvalidThreshold indicates an IoU or confidence threshold outside
	// the closed interval [0, 1].
	ErrInvalidThreshold = errors.New("evalbox: threshold outside [0, 1]")

	// ErrTaskMismatch indicates a parameter that does not apply to the
	// requested task type, such as an IoU threshold on a classification run.
	ErrTaskMismatch = errors.New("evalbox: parameter not valid for task type")

	// ErrUnknownTask indicates a task type other than detection or
	// classification.
	ErrUnknownTask = errors.New("evalbox: unknown task type")
)
