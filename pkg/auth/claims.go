package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Table fields are required for table tokens and must be empty for admins.
type AccessTokenPayload struct {
	Subject     string
	UserType    enums.UserType
	StoreID     uuid.UUID
	TableID     *uuid.UUID
	TableNumber *int
	SessionID   *uuid.UUID
}

// AccessTokenClaims represents the typed JWT issued to clients. Subject
// lives in the embedded RegisteredClaims.
type AccessTokenClaims struct {
	UserType    enums.UserType `json:"user_type"`
	StoreID     uuid.UUID      `json:"store_id"`
	TableID     *uuid.UUID     `json:"table_id,omitempty"`
	TableNumber *int           `json:"table_number,omitempty"`
	SessionID   *uuid.UUID     `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// IsTable reports whether the claims belong to a table device.
func (c *AccessTokenClaims) IsTable() bool {
	return c != nil && c.UserType == enums.UserTypeTable
}

// IsAdmin reports whether the claims belong to store staff.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.UserType == enums.UserTypeAdmin
}

// TableSubject is the subject used for table tokens.
func TableSubject(tableID uuid.UUID) string {
	return "table_" + tableID.String()
}
