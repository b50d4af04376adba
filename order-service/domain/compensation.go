package domain

// CompensationKind names a compensating action
type CompensationKind string

const (
	KindCancelOrder      CompensationKind = "CancelOrder"
	KindReleaseInventory CompensationKind = "ReleaseInventory"
	KindRefundPayment    CompensationKind = "RefundPayment"
)

// CompensationEntry undoes one completed forward step. The set of
// implementations is closed.
type CompensationEntry interface {
	Kind() CompensationKind
	compensation()
}

type CancelOrder struct {
	OrderID string
}

type ReleaseInventory struct {
	OrderID string
	Items   []OrderItem
}

type RefundPayment struct {
	OrderID   string
	PaymentID string
}

func (CancelOrder) Kind() CompensationKind      { return KindCancelOrder }
func (ReleaseInventory) Kind() CompensationKind { return KindReleaseInventory }
func (RefundPayment) Kind() CompensationKind    { return KindRefundPayment }

func (CancelOrder) compensation()      {}
func (ReleaseInventory) compensation() {}
func (RefundPayment) compensation()    {}
