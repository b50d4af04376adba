package application

import (
	"context"

	"github.com/draftea/order-saga/order-service/domain"
)

const (
	StepCreateOrder           = "CreateOrder"
	StepReserveInventory      = "ReserveInventory"
	StepProcessPayment        = "ProcessPayment"
	StepSendConfirmationEmail = "SendConfirmationEmail"
)

// Step is one forward step of the order saga
type Step struct {
	Name string
	// FailurePrefix is put in front of a business failure message
	FailurePrefix string
	Run           func(ctx context.Context, gateway Gateway, req domain.OrderRequest) (domain.ActivityResult, error)
	// Compensate builds the entry that undoes a successful run. The step has
	// nothing to undo when it returns false.
	Compensate func(req domain.OrderRequest, res domain.ActivityResult) (domain.CompensationEntry, bool)
}

// FailureMessage derives the saga error from a failed run. Business failures
// are prefixed; faults keep their own message.
func (s Step) FailureMessage(res domain.ActivityResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if res.Message == "" {
		return s.FailurePrefix
	}
	return s.FailurePrefix + ": " + res.Message
}

var orderSagaSteps = []Step{
	{
		Name:          StepCreateOrder,
		FailurePrefix: "Order creation failed",
		Run: func(ctx context.Context, gateway Gateway, req domain.OrderRequest) (domain.ActivityResult, error) {
			return gateway.CreateOrder(ctx, req.OrderID, req.UserID, req.Items, req.TotalAmount)
		},
		Compensate: func(req domain.OrderRequest, _ domain.ActivityResult) (domain.CompensationEntry, bool) {
			return domain.CancelOrder{OrderID: req.OrderID}, true
		},
	},
	{
		Name:          StepReserveInventory,
		FailurePrefix: "Inventory reservation failed",
		Run: func(ctx context.Context, gateway Gateway, req domain.OrderRequest) (domain.ActivityResult, error) {
			return gateway.ReserveInventory(ctx, req.OrderID, req.Items)
		},
		Compensate: func(req domain.OrderRequest, _ domain.ActivityResult) (domain.CompensationEntry, bool) {
			return domain.ReleaseInventory{OrderID: req.OrderID, Items: req.Items}, true
		},
	},
	{
		Name:          StepProcessPayment,
		FailurePrefix: "Payment failed",
		Run: func(ctx context.Context, gateway Gateway, req domain.OrderRequest) (domain.ActivityResult, error) {
			return gateway.ProcessPayment(ctx, req.OrderID, req.UserID, req.TotalAmount)
		},
		Compensate: func(req domain.OrderRequest, res domain.ActivityResult) (domain.CompensationEntry, bool) {
			if res.PaymentID == "" {
				return nil, false
			}
			return domain.RefundPayment{OrderID: req.OrderID, PaymentID: res.PaymentID}, true
		},
	},
	{
		Name:          StepSendConfirmationEmail,
		FailurePrefix: "Confirmation email failed",
		Run: func(ctx context.Context, gateway Gateway, req domain.OrderRequest) (domain.ActivityResult, error) {
			return gateway.SendConfirmationEmail(ctx, req.OrderID, req.UserID, req.TotalAmount)
		},
		Compensate: func(domain.OrderRequest, domain.ActivityResult) (domain.CompensationEntry, bool) {
			return nil, false
		},
	},
}

// OrderSagaSteps returns the steps in execution order
func OrderSagaSteps() []Step {
	return append([]Step(nil), orderSagaSteps...)
}
