package auth

import "github.com/google/uuid"

const tokenTypeBearer = "Bearer"

// TableLoginRequest is sent by the customer tablet.
type TableLoginRequest struct {
	StoreID     uuid.UUID `json:"store_id" validate:"required"`
	TableNumber int       `json:"table_number" validate:"required,gt=0"`
	Password    string    `json:"password" validate:"required,min=4,max=64"`
}

// TableLoginResponse carries the table token and its bound session.
type TableLoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	TableID     uuid.UUID `json:"table_id"`
	TableNumber int       `json:"table_number"`
	SessionID   uuid.UUID `json:"session_id"`
	StoreID     uuid.UUID `json:"store_id"`
	StoreName   string    `json:"store_name"`
	Resumed     bool      `json:"resumed"`
}

// AdminLoginRequest captures store admin credentials.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse carries the admin token.
type AdminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	StoreID     uuid.UUID `json:"store_id"`
	StoreName   string    `json:"store_name"`
	Username    string    `json:"username"`
}
