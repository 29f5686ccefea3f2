package domain

// Requester is the authenticated caller, resolved once per request by the
// identity service and passed explicitly to every service operation.
type Requester struct {
	UserID    uint
	IsAdmin   bool
	SessionID string
}
