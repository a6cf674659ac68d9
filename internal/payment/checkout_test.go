package payment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCard() Checkout {
	return Checkout{
		EventID:       42,
		PaymentMethod: MethodCreditCard,
		CardNumber:    "4111111111111111",
		Expiration:    "12/29",
		Cvv:           "123",
	}
}

func TestValidate_AcceptsCompleteCreditCard(t *testing.T) {
	assert.Nil(t, Validate(validCard()))
}

func TestValidate_NonCardMethodsSkipCardRules(t *testing.T) {
	assert.Nil(t, Validate(Checkout{EventID: 1, PaymentMethod: "Cash"}))
}

func TestValidate_RequiresMethodAndEvent(t *testing.T) {
	errs := Validate(Checkout{})
	assert.Equal(t, "payment_method is required.", errs["payment_method"])
	assert.Equal(t, "event_id is required.", errs["event_id"])
}

func TestValidate_CreditCardRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Checkout)
		field  string
		msg    string
	}{
		{"missing card", func(c *Checkout) { c.CardNumber = "" }, "card_number", "Card number is required."},
		{"bad luhn", func(c *Checkout) { c.CardNumber = "4111111111111112" }, "card_number", "Card number is not a valid credit card number."},
		{"missing expiration", func(c *Checkout) { c.Expiration = "" }, "expiration", "Expiration date is required."},
		{"month out of range", func(c *Checkout) { c.Expiration = "13/29" }, "expiration", "Expiration must be in MM/YY format."},
		{"four digit year", func(c *Checkout) { c.Expiration = "12/2029" }, "expiration", "Expiration must be in MM/YY format."},
		{"missing cvv", func(c *Checkout) { c.Cvv = "" }, "cvv", "CVV is required."},
		{"short cvv", func(c *Checkout) { c.Cvv = "12" }, "cvv", "CVV must be 3 or 4 digits."},
		{"alpha cvv", func(c *Checkout) { c.Cvv = "12a" }, "cvv", "CVV must be 3 or 4 digits."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCard()
			tt.mutate(&c)
			errs := Validate(c)
			assert.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestValidate_FourDigitCvv(t *testing.T) {
	c := validCard()
	c.Cvv = "1234"
	assert.Nil(t, Validate(c))
}

func TestTranslate_NonValidationError(t *testing.T) {
	errs := Translate(errors.New("unexpected EOF"))
	assert.Equal(t, FieldErrors{"_": "Invalid input. Please check your fields."}, errs)
}
