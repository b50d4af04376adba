package domain

import "github.com/pkg/errors"

// ActivityResult is the structured reply of a capability call. Success false
// is a business failure: it is never retried and aborts the saga.
type ActivityResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
}

func Succeeded(message string) ActivityResult {
	return ActivityResult{Success: true, Message: message}
}

func Failed(message string) ActivityResult {
	return ActivityResult{Success: false, Message: message}
}

// Fault is raised by a capability call that could not produce a result.
// Transient faults are retried under the retry policy.
type Fault struct {
	Op        string
	Message   string
	Transient bool
	Err       error
}

// TransientFault reports a failure worth retrying
func TransientFault(op, message string) *Fault {
	return &Fault{Op: op, Message: message, Transient: true}
}

// StoreFault wraps an infrastructure error from a store as a transient fault
func StoreFault(op string, err error) *Fault {
	return &Fault{Op: op, Message: err.Error(), Transient: true, Err: err}
}

// PermanentFault reports a failure that retrying cannot fix
func PermanentFault(op string, err error) *Fault {
	return &Fault{Op: op, Message: err.Error(), Transient: false, Err: err}
}

func (f *Fault) Error() string {
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func (f *Fault) Retryable() bool {
	return f.Transient
}

// AsFault returns the fault carried by err, if any
func AsFault(err error) (*Fault, bool) {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
