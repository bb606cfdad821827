package domain

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

const (
	MethodMpesa  = "MPESA"
	MethodPayPal = "PAYPAL"
)

// Donation lifecycle. A donation is created PENDING and mutated exactly once
// by the provider callback (or the expiry job).
const (
	DonationStatusPending   = "PENDING"
	DonationStatusCompleted = "COMPLETED"
	DonationStatusFailed    = "FAILED"
	DonationStatusExpired   = "EXPIRED"
)

const (
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	CurrencyKES = "KES"
	CurrencyUSD = "USD"
)

const (
	ProviderMpesaDaraja = "mpesa_daraja"
	ProviderPayPal      = "paypal"
	ProviderStub        = "stub"
)

// ValidOrderTransition reports whether an admin status change is allowed.
// Orders move forward only; cancellation is allowed until delivery.
func ValidOrderTransition(from, to string) bool {
	switch from {
	case OrderStatusProcessing:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusDelivered || to == OrderStatusCancelled
	default:
		return false
	}
}
