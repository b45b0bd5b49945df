package reporting

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glimte/mmate-aspect/invocation"
)

// FailureReport describes one failed intercepted call
type FailureReport struct {
	ID           string    `json:"id"`
	InvocationID string    `json:"invocationId"`
	Method       string    `json:"method"`
	Error        string    `json:"error"`
	ErrorType    string    `json:"errorType"`
	ErrorChain   []string  `json:"errorChain,omitempty"`
	Arguments    int       `json:"arguments"`
	Source       string    `json:"source,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// NewFailureReport builds a report for inv failing with err
func NewFailureReport(inv *invocation.Invocation, err error, source string, now time.Time) *FailureReport {
	report := &FailureReport{
		ID:         uuid.New().String(),
		Source:     source,
		OccurredAt: now.UTC(),
	}

	if inv != nil {
		report.InvocationID = inv.ID()
		report.Method = inv.Method()
		report.Arguments = inv.NumArguments()
	}

	if err != nil {
		report.Error = err.Error()
		report.ErrorType = fmt.Sprintf("%T", err)
		report.ErrorChain = unwrapChain(err)
	}

	return report
}

// unwrapChain lists the types of the errors wrapped by err, outermost first,
// following only single-error Unwrap
func unwrapChain(err error) []string {
	var chain []string
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(inner) {
		chain = append(chain, fmt.Sprintf("%T", inner))
	}
	return chain
}
