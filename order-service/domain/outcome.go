package domain

const (
	MsgOrderProcessed = "Order processed successfully"
	MsgOrderCancelled = "Order cancelled and refunded"
)

// SagaOutcome is what the caller of a saga always receives. Success and
// Error are mutually exclusive; PaymentID is set whenever the payment step
// completed, refunded or not.
type SagaOutcome struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"order_id"`
	Message   string `json:"message"`
	PaymentID string `json:"payment_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func SucceededOutcome(orderID, paymentID string) SagaOutcome {
	return SagaOutcome{
		Success:   true,
		OrderID:   orderID,
		Message:   MsgOrderProcessed,
		PaymentID: paymentID,
	}
}

func CompensatedOutcome(orderID, paymentID, cause string) SagaOutcome {
	return SagaOutcome{
		Success:   false,
		OrderID:   orderID,
		Message:   MsgOrderCancelled,
		PaymentID: paymentID,
		Error:     cause,
	}
}
