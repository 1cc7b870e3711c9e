package models

// RegistrationStatus is the payment/confirmation lifecycle of a registration.
type RegistrationStatus string

const (
	RegistrationPendingPayment  RegistrationStatus = "pending_payment"
	RegistrationPaymentVerified RegistrationStatus = "payment_verified"
	RegistrationConfirmed       RegistrationStatus = "confirmed"
	RegistrationCancelled       RegistrationStatus = "cancelled"
)

var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationPendingPayment:  {RegistrationPaymentVerified, RegistrationCancelled},
	RegistrationPaymentVerified: {RegistrationConfirmed, RegistrationCancelled},
	RegistrationConfirmed:       {RegistrationCancelled},
	RegistrationCancelled:       nil,
}

func (s RegistrationStatus) Valid() bool {
	_, ok := registrationTransitions[s]
	return ok
}

// CanTransitionTo reports whether an admin may move a registration from s
// to target. Cancelled is terminal.
func (s RegistrationStatus) CanTransitionTo(target RegistrationStatus) bool {
	for _, next := range registrationTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RegistrationStatus) Terminal() bool {
	return len(registrationTransitions[s]) == 0
}

// InitialRegistrationStatus is the status a new registration starts in.
func InitialRegistrationStatus(event Event) RegistrationStatus {
	if event.RequiresPayment() {
		return RegistrationPendingPayment
	}
	return RegistrationConfirmed
}
