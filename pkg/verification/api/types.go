package api

// PresentResponse is returned for a valid key on the read-only GET path
type PresentResponse struct {
	Login   string `json:"login"`
	Message string `json:"message"`
}

// RedeemRequest represents the request to redeem a verification key
type RedeemRequest struct {
	Key string `json:"key"`
}

// RedeemResponse represents the response after a successful redemption
type RedeemResponse struct {
	Message  string `json:"message"`
	LoggedIn bool   `json:"logged_in"`
}

// ResendRequest represents the request to resend the verification email
type ResendRequest struct {
	Login string `json:"login"`
}

// ResendResponse represents the response after resending the email
type ResendResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
