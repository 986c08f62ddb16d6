package model

import (
	"strconv"
	"strings"

	"telegram-exchange-assistant/internal/domain"
)

// Inline button actions. Callback data is the action followed by space separated args.
const (
	CallbackExchangeRate = "EXCHANGE_RATE"
	CallbackProvidePA    = "PROVIDE_PA"
	CallbackOutOfStock   = "OUT_OF_STOCK"
	CallbackConfirmPay   = "CONFIRM_PAY"
	CallbackPAStatus     = "PA_STATUS"
)

// ExchangeRateProvideArg is the only argument of the EXCHANGE_RATE action.
const ExchangeRateProvideArg = "provide"

func CallbackData(action string, args ...string) string {
	return strings.Join(append([]string{action}, args...), " ")
}

// ParseCallbackData splits callback data into its action and arguments.
func ParseCallbackData(data string) (action string, args []string) {
	fields := strings.Fields(data)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// CallbackArgs encodes the ref as "<customer_id> <order_id>" arguments.
func (r PaymentRef) CallbackArgs() []string {
	return []string{strconv.FormatInt(r.CustomerID, 10), r.OrderID.String()}
}

// PaymentRefFromArgs is the inverse of PaymentRef.CallbackArgs.
func PaymentRefFromArgs(args []string) (PaymentRef, error) {
	if len(args) != 2 {
		return PaymentRef{}, domain.ErrInvalidArgument
	}
	customerID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return PaymentRef{}, domain.ErrInvalidArgument
	}
	return NewPaymentRef(customerID, args[1])
}
