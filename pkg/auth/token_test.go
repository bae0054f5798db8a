package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "tableorder",
	ExpirationMinutes: 960,
}

func TestMintAndParseTableToken(t *testing.T) {
	now := time.Now().UTC()
	storeID := uuid.New()
	tableID := uuid.New()
	sessionID := uuid.New()
	number := 7

	token, err := MintAccessToken(testJWT, now, AccessTokenPayload{
		Subject:     TableSubject(tableID),
		UserType:    enums.UserTypeTable,
		StoreID:     storeID,
		TableID:     &tableID,
		TableNumber: &number,
		SessionID:   &sessionID,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if !claims.IsTable() || claims.IsAdmin() {
		t.Fatalf("expected table claims, got %s", claims.UserType)
	}
	if claims.StoreID != storeID {
		t.Fatalf("store id mismatch")
	}
	if claims.TableID == nil || *claims.TableID != tableID {
		t.Fatalf("table id not preserved")
	}
	if claims.TableNumber == nil || *claims.TableNumber != number {
		t.Fatalf("table number not preserved")
	}
	if claims.SessionID == nil || *claims.SessionID != sessionID {
		t.Fatalf("session id not preserved")
	}
	if claims.Subject != "table_"+tableID.String() {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Issuer != testJWT.Issuer {
		t.Fatalf("expected issuer %s, got %s", testJWT.Issuer, claims.Issuer)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 16*time.Hour {
		t.Fatalf("expected 16h lifetime, got %v", got)
	}
}

func TestMintAdminToken(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{
		Subject:  "owner",
		UserType: enums.UserTypeAdmin,
		StoreID:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}
	claims, err := ParseAccessToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse admin token: %v", err)
	}
	if !claims.IsAdmin() || claims.TableID != nil {
		t.Fatalf("unexpected admin claims %+v", claims)
	}
}

func TestMintRejectsIncompletePayloads(t *testing.T) {
	tableID := uuid.New()
	cases := map[string]AccessTokenPayload{
		"missing subject":      {UserType: enums.UserTypeAdmin, StoreID: uuid.New()},
		"missing store":        {Subject: "owner", UserType: enums.UserTypeAdmin},
		"unknown user type":    {Subject: "x", UserType: "guest", StoreID: uuid.New()},
		"table without claims": {Subject: "t", UserType: enums.UserTypeTable, StoreID: uuid.New()},
		"admin with table id":  {Subject: "owner", UserType: enums.UserTypeAdmin, StoreID: uuid.New(), TableID: &tableID},
	}
	for name, payload := range cases {
		if _, err := MintAccessToken(testJWT, time.Now(), payload); err == nil {
			t.Fatalf("%s: expected mint error", name)
		}
	}
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	payload := AccessTokenPayload{Subject: "owner", UserType: enums.UserTypeAdmin, StoreID: uuid.New()}

	expired, err := MintAccessToken(testJWT, time.Now().Add(-17*time.Hour), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, expired); err == nil || !strings.Contains(err.Error(), jwt.ErrTokenExpired.Error()) {
		t.Fatalf("expected expiry error, got %v", err)
	}

	other := testJWT
	other.Issuer = "someone-else"
	foreign, err := MintAccessToken(other, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, foreign); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}

	wrongKey := testJWT
	wrongKey.Secret = "other"
	signed, err := MintAccessToken(wrongKey, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, signed); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}
