// Package payment holds the stand-in payment gateway and the checkout form
// rules that run before it.
package payment

const MethodCreditCard = "CreditCard"

// Methods are offered on the checkout form. Authorize accepts any
// non-empty method.
var Methods = []string{MethodCreditCard, "PayPal", "Cash"}

type Decision int

const (
	Declined Decision = iota
	Approved
)

func (d Decision) String() string {
	if d == Approved {
		return "approved"
	}
	return "declined"
}

type CardDetails struct {
	CardNumber string
	Expiration string
	Cvv        string
}

// Authorize simulates a gateway decision. It has no side effects.
func Authorize(method string, details CardDetails) Decision {
	if method == "" {
		return Declined
	}
	if method == MethodCreditCard && details.CardNumber == "" {
		return Declined
	}
	return Approved
}
