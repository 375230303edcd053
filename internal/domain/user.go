package domain

// UserRecord is the per-user profile persisted by the store.
type UserRecord struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Verified bool   `json:"verified" db:"verified"`
	Phone    string `json:"phone,omitempty" db:"phone"`
	PhoneOK  bool   `json:"phone_ok" db:"phone_ok"`
}
