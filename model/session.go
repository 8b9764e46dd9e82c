package model

// Session is an authenticated login stored in the counter store under session:{id}.
type Session struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	CreatedAt    int64  `json:"createdAt"`
	ExpiresAt    int64  `json:"expiresAt"`
	LastActivity int64  `json:"lastActivity"`
	IPAddress    string `json:"ipAddress"`
	UserAgent    string `json:"userAgent"`
}

type PasswordReset struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expiresAt"`
}
