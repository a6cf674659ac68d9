package payment

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	expirationPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// Checkout is the purchase form. It binds from JSON or from form posts.
type Checkout struct {
	EventID       uint   `json:"event_id" form:"eventId" binding:"required"`
	PaymentMethod string `json:"payment_method" form:"payment_method" binding:"required,max=50"`
	CardNumber    string `json:"card_number" form:"card_number"`
	Expiration    string `json:"expiration" form:"expiration"`
	Cvv           string `json:"cvv" form:"cvv"`
}

func (c Checkout) Card() CardDetails {
	return CardDetails{CardNumber: c.CardNumber, Expiration: c.Expiration, Cvv: c.Cvv}
}

// FieldErrors maps a field's wire name to a human readable message.
type FieldErrors map[string]string

var messages = map[string]string{
	"card_required": "Card number is required.",
	"card_invalid":  "Card number is not a valid credit card number.",
	"exp_required":  "Expiration date is required.",
	"exp_format":    "Expiration must be in MM/YY format.",
	"cvv_required":  "CVV is required.",
	"cvv_format":    "CVV must be 3 or 4 digits.",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

// RegisterValidations installs the checkout rules on v. Called for the
// package validator and for gin's binding engine.
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterStructValidation(checkoutStructLevel, Checkout{})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func checkoutStructLevel(sl validator.StructLevel) {
	c := sl.Current().Interface().(Checkout)
	if c.PaymentMethod != MethodCreditCard {
		return
	}

	switch {
	case strings.TrimSpace(c.CardNumber) == "":
		sl.ReportError(c.CardNumber, "card_number", "CardNumber", "card_required", "")
	case sl.Validator().Var(c.CardNumber, "credit_card") != nil:
		sl.ReportError(c.CardNumber, "card_number", "CardNumber", "card_invalid", "")
	}

	switch {
	case strings.TrimSpace(c.Expiration) == "":
		sl.ReportError(c.Expiration, "expiration", "Expiration", "exp_required", "")
	case !expirationPattern.MatchString(c.Expiration):
		sl.ReportError(c.Expiration, "expiration", "Expiration", "exp_format", "")
	}

	switch {
	case strings.TrimSpace(c.Cvv) == "":
		sl.ReportError(c.Cvv, "cvv", "Cvv", "cvv_required", "")
	case !cvvPattern.MatchString(c.Cvv):
		sl.ReportError(c.Cvv, "cvv", "Cvv", "cvv_format", "")
	}
}

// Validate runs the binding rules without gin, returning nil when the
// checkout is acceptable.
func Validate(c Checkout) FieldErrors {
	return Translate(validate.Struct(c))
}

// Translate turns validator output into field messages. Errors that are not
// validation errors (malformed JSON, type mismatches) land under "_".
func Translate(err error) FieldErrors {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": "Invalid input. Please check your fields."}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid.", fe.Field())
}
