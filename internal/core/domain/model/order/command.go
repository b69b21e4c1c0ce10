package order

import (
	"fmt"
	"strings"

	"oms/internal/pkg/errs"
)

// CommandType is a request to move an order through its lifecycle.
type CommandType int

const (
	UnknownCommand CommandType = iota
	Create
	RequestPayment
	ConfirmPayment
	Ship
	Deliver
	Cancel
)

var commandNames = map[CommandType]string{
	UnknownCommand: "UNKNOWN",
	Create:         "CREATE",
	RequestPayment: "REQUEST_PAYMENT",
	ConfirmPayment: "CONFIRM_PAYMENT",
	Ship:           "SHIP",
	Deliver:        "DELIVER",
	Cancel:         "CANCEL",
}

var commandTargets = map[CommandType]Status{
	Create:         Created,
	RequestPayment: PaymentPending,
	ConfirmPayment: Confirmed,
	Ship:           Shipped,
	Deliver:        Delivered,
	Cancel:         Cancelled,
}

// ParseCommandType converts the wire name (case-insensitive) into a CommandType.
func ParseCommandType(name string) (CommandType, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for c, n := range commandNames {
		if c != UnknownCommand && n == upper {
			return c, nil
		}
	}
	return UnknownCommand, errs.NewValueIsInvalidErrorWithCause("command", fmt.Errorf("%q is not a known command", name))
}

func (c CommandType) Validate() error {
	if _, ok := commandTargets[c]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("command", fmt.Errorf("%d is not a valid command", c))
	}
	return nil
}

func (c CommandType) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return commandNames[UnknownCommand]
}

// Target is the status an order reaches when the command is accepted.
func (c CommandType) Target() Status {
	return commandTargets[c]
}
