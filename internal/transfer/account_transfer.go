package transfer

import "time"

// AccountInfo is the API view of a connected account. Credentials are never
// serialized out.
type AccountInfo struct {
	ID              int64      `json:"id"`
	Platform        string     `json:"platform"`
	AccountUsername string     `json:"account_username"`
	TokenExpiresAt  *time.Time `json:"token_expires_at"`
	CreatedAt       time.Time  `json:"created_at"`
}
