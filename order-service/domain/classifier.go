package domain

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/draftea/order-saga/shared/saga"
)

// DefaultPaymentLimit is the reference payment ceiling
const DefaultPaymentLimit = 1000.0

const (
	MsgGatewayUnavailable = "Payment gateway temporarily unavailable"
	MsgGatewayTimeout     = "Payment gateway timeout"
)

type Classification int

const (
	ClassifiedSuccess Classification = iota
	ClassifiedTerminal
	ClassifiedRetryable
)

func (c Classification) String() string {
	switch c {
	case ClassifiedSuccess:
		return "success"
	case ClassifiedTerminal:
		return "terminal"
	case ClassifiedRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

// PaymentAttempt is what a classifier sees for one payment call
type PaymentAttempt struct {
	OrderID string
	UserID  string
	Amount  float64
	// Attempt starts at 1 and grows with every retry of the same call
	Attempt int
}

// PaymentDecision is the classifier verdict with the message to surface
type PaymentDecision struct {
	Class   Classification
	Message string
}

// FaultClassifier decides how a payment attempt ends
type FaultClassifier interface {
	Classify(ctx context.Context, attempt PaymentAttempt) PaymentDecision
}

// LimitMessage is the failure message for an amount above limit
func LimitMessage(limit float64) string {
	return "Amount exceeds limit of " + strconv.FormatFloat(limit, 'f', -1, 64)
}

func checkLimit(limit, amount float64) (PaymentDecision, bool) {
	if amount > limit {
		return PaymentDecision{Class: ClassifiedTerminal, Message: LimitMessage(limit)}, true
	}
	return PaymentDecision{}, false
}

// LimitClassifier only applies the business ceiling
type LimitClassifier struct {
	Limit float64
}

func NewLimitClassifier(limit float64) LimitClassifier {
	return LimitClassifier{Limit: limit}
}

func (c LimitClassifier) Classify(_ context.Context, attempt PaymentAttempt) PaymentDecision {
	if decision, exceeded := checkLimit(c.Limit, attempt.Amount); exceeded {
		return decision
	}
	return PaymentDecision{Class: ClassifiedSuccess}
}

// BandClassifier applies the business ceiling first and then simulates an
// unreliable gateway: a draw below TransientRate is "unavailable", a draw in
// the following TimeoutRate band is a timeout.
type BandClassifier struct {
	Limit         float64
	TransientRate float64
	TimeoutRate   float64
	// Rand returns a value in [0, 1)
	Rand func() float64
}

func NewBandClassifier(limit, transientRate, timeoutRate float64) BandClassifier {
	return BandClassifier{
		Limit:         limit,
		TransientRate: transientRate,
		TimeoutRate:   timeoutRate,
		Rand:          rand.Float64,
	}
}

func (c BandClassifier) Classify(_ context.Context, attempt PaymentAttempt) PaymentDecision {
	if decision, exceeded := checkLimit(c.Limit, attempt.Amount); exceeded {
		return decision
	}

	draw := c.Rand()
	switch {
	case draw < c.TransientRate:
		return PaymentDecision{Class: ClassifiedRetryable, Message: MsgGatewayUnavailable}
	case draw < c.TransientRate+c.TimeoutRate:
		return PaymentDecision{Class: ClassifiedRetryable, Message: MsgGatewayTimeout}
	default:
		return PaymentDecision{Class: ClassifiedSuccess}
	}
}

// ScriptedClassifier applies the business ceiling and then faults the first
// FailAttempts attempts of every call. Attempt numbers come from the retry
// loop through the context.
type ScriptedClassifier struct {
	Limit        float64
	FailAttempts int
	Message      string
}

func (c ScriptedClassifier) Classify(ctx context.Context, attempt PaymentAttempt) PaymentDecision {
	if decision, exceeded := checkLimit(c.Limit, attempt.Amount); exceeded {
		return decision
	}

	n := attempt.Attempt
	if n == 0 {
		n = saga.AttemptFromContext(ctx)
	}
	if n <= c.FailAttempts {
		msg := c.Message
		if msg == "" {
			msg = MsgGatewayUnavailable
		}
		return PaymentDecision{Class: ClassifiedRetryable, Message: msg}
	}
	return PaymentDecision{Class: ClassifiedSuccess}
}
