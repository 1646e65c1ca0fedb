package model

import "time"

// Account is a registered user. The password hash is never serialized
// into API responses; use Public() for anything caller-facing.
type Account struct {
	ID           string    `json:"id" dynamodbav:"id"`
	FullName     string    `json:"fullName" dynamodbav:"full_name"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// PublicAccount is the projection of an Account safe to return to callers.
type PublicAccount struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the credential material from the account.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		FullName:  a.FullName,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// Note is a single user-owned note. Tags is an ordered sequence and is
// never nil in API responses.
type Note struct {
	ID        string    `json:"id" dynamodbav:"id"`
	OwnerID   string    `json:"ownerId" dynamodbav:"owner_id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Content   string    `json:"content" dynamodbav:"content"`
	Tags      []string  `json:"tags" dynamodbav:"tags"`
	IsPinned  bool      `json:"isPinned" dynamodbav:"is_pinned"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
}
