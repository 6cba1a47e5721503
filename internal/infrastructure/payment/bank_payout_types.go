package payment

// payoutRequest is the wire format of a transfer creation call
type payoutRequest struct {
	Reference string `json:"reference"`
	UserID    string `json:"user_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Narrative string `json:"narrative,omitempty"`
}

// payoutResponse is the wire format of a transfer creation result
type payoutResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Payout API statuses
const (
	payoutStatusAccepted = "accepted"
	payoutStatusSettled  = "settled"
	payoutStatusRejected = "rejected"
)
