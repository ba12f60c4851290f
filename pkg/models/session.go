package models

// LoginState tracks where a user currently is in the phone/OTP login
// flow. Authentication itself is proven by the persisted storage
// snapshot; this state only sequences the conversation.
type LoginState string

const (
	StateNoSession     LoginState = "NO_SESSION"
	StateAwaitingOTP   LoginState = "AWAITING_OTP"
	StateAuthenticated LoginState = "AUTHENTICATED"
)

// LoginRequest is the payload for requesting an OTP code.
type LoginRequest struct {
	UserID string `json:"userId"`
	Phone  string `json:"phone"`
}

// VerifyRequest is the payload for confirming an OTP code.
type VerifyRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

// CreateListingRequest is the payload for submitting a listing.
type CreateListingRequest struct {
	UserID string       `json:"userId"`
	Draft  ListingDraft `json:"draft"`
}
