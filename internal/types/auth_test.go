package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCredentials_JSONMarshaling(t *testing.T) {
	now := time.Now()
	creds := Credentials{
		AccessToken:         "access-token-123",
		RefreshToken:        "refresh-token-456",
		ExpiryDate:          now,
		Scopes:              []string{"scope1", "scope2"},
		Type:                AuthTypeOAuth,
		ServiceAccountEmail: "",
		ImpersonatedUser:    "",
	}

	data, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("Failed to marshal Credentials: %v", err)
	}

	var decoded Credentials
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal Credentials: %v", err)
	}

	if decoded.AccessToken != creds.AccessToken {
		t.Errorf("AccessToken = %s, want %s", decoded.AccessToken, creds.AccessToken)
	}

	if decoded.RefreshToken != creds.RefreshToken {
		t.Errorf("RefreshToken = %s, want %s", decoded.RefreshToken, creds.RefreshToken)
	}

	if !decoded.ExpiryDate.Equal(creds.ExpiryDate) {
		t.Errorf("ExpiryDate = %v, want %v", decoded.ExpiryDate, creds.ExpiryDate)
	}

	if len(decoded.Scopes) != len(creds.Scopes) {
		t.Errorf("Scopes length = %d, want %d", len(decoded.Scopes), len(creds.Scopes))
	}

	if decoded.Type != creds.Type {
		t.Errorf("Type = %s, want %s", decoded.Type, creds.Type)
	}
}

func TestAuthType_Constants(t *testing.T) {
	tests := []struct {
		authType AuthType
		want     string
	}{
		{AuthTypeOAuth, "oauth"},
		{AuthTypeServiceAccount, "service_account"},
		{AuthTypeImpersonated, "impersonated"},
	}

	for _, tt := range tests {
		t.Run(string(tt.authType), func(t *testing.T) {
			if string(tt.authType) != tt.want {
				t.Errorf("AuthType = %s, want %s", tt.authType, tt.want)
			}
		})
	}
}

func TestCredentials_OAuthType(t *testing.T) {
	creds := Credentials{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiryDate:   time.Now().Add(time.Hour),
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.modify"},
		Type:         AuthTypeOAuth,
	}

	if creds.Type != AuthTypeOAuth {
		t.Errorf("Type = %s, want %s", creds.Type, AuthTypeOAuth)
	}

	if creds.ServiceAccountEmail != "" {
		t.Error("ServiceAccountEmail should be empty for OAuth")
	}
}

func TestCredentials_ServiceAccountType(t *testing.T) {
	creds := Credentials{
		AccessToken:         "access-token",
		ExpiryDate:          time.Now().Add(time.Hour),
		Scopes:              []string{"https://www.googleapis.com/auth/gmail.modify"},
		Type:                AuthTypeServiceAccount,
		ServiceAccountEmail: "service@example.iam.gserviceaccount.com",
	}

	if creds.Type != AuthTypeServiceAccount {
		t.Errorf("Type = %s, want %s", creds.Type, AuthTypeServiceAccount)
	}

	if creds.ServiceAccountEmail == "" {
		t.Error("ServiceAccountEmail should not be empty for service account")
	}
}

func TestCredentials_ImpersonatedType(t *testing.T) {
	creds := Credentials{
		AccessToken:         "access-token",
		ExpiryDate:          time.Now().Add(time.Hour),
		Scopes:              []string{"https://www.googleapis.com/auth/gmail.modify"},
		Type:                AuthTypeImpersonated,
		ServiceAccountEmail: "service@example.iam.gserviceaccount.com",
		ImpersonatedUser:    "user@example.com",
	}

	if creds.Type != AuthTypeImpersonated {
		t.Errorf("Type = %s, want %s", creds.Type, AuthTypeImpersonated)
	}

	if creds.ImpersonatedUser == "" {
		t.Error("ImpersonatedUser should not be empty for impersonated type")
	}

	if creds.ServiceAccountEmail == "" {
		t.Error("ServiceAccountEmail should not be empty for impersonated type")
	}
}

func TestStoredCredentials_JSONMarshaling(t *testing.T) {
	stored := StoredCredentials{
		Profile:             "default",
		AccessToken:         "access-token-123",
		RefreshToken:        "refresh-token-456",
		ExpiryDate:          "2026-12-31T23:59:59Z",
		Scopes:              []string{"scope1", "scope2"},
		Type:                AuthTypeOAuth,
		ServiceAccountEmail: "",
		ImpersonatedUser:    "",
	}

	data, err := json.Marshal(stored)
	if err != nil {
		t.Fatalf("Failed to marshal StoredCredentials: %v", err)
	}

	var decoded StoredCredentials
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal StoredCredentials: %v", err)
	}

	if decoded.Profile != stored.Profile {
		t.Errorf("Profile = %s, want %s", decoded.Profile, stored.Profile)
	}

	if decoded.AccessToken != stored.AccessToken {
		t.Errorf("AccessToken = %s, want %s", decoded.AccessToken, stored.AccessToken)
	}

	if decoded.RefreshToken != stored.RefreshToken {
		t.Errorf("RefreshToken = %s, want %s", decoded.RefreshToken, stored.RefreshToken)
	}

	if decoded.ExpiryDate != stored.ExpiryDate {
		t.Errorf("ExpiryDate = %s, want %s", decoded.ExpiryDate, stored.ExpiryDate)
	}

	if len(decoded.Scopes) != len(stored.Scopes) {
		t.Errorf("Scopes length = %d, want %d", len(decoded.Scopes), len(stored.Scopes))
	}

	if decoded.Type != stored.Type {
		t.Errorf("Type = %s, want %s", decoded.Type, stored.Type)
	}
}

func TestStoredCredentials_DifferentProfiles(t *testing.T) {
	profiles := []string{"default", "work", "personal"}

	for _, profile := range profiles {
		t.Run(profile, func(t *testing.T) {
			stored := StoredCredentials{
				Profile:     profile,
				AccessToken: "token",
				ExpiryDate:  "2026-12-31T23:59:59Z",
				Scopes:      []string{"https://www.googleapis.com/auth/gmail.modify"},
				Type:        AuthTypeOAuth,
			}

			if stored.Profile != profile {
				t.Errorf("Profile = %s, want %s", stored.Profile, profile)
			}
		})
	}
}

func TestCredentials_RefreshTokenOmitEmpty(t *testing.T) {
	// Service account without refresh token
	creds := Credentials{
		AccessToken:         "access-token",
		ExpiryDate:          time.Now(),
		Scopes:              []string{"https://www.googleapis.com/auth/gmail.modify"},
		Type:                AuthTypeServiceAccount,
		ServiceAccountEmail: "service@example.com",
	}

	data, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	jsonStr := string(data)
	if strings.Contains(jsonStr, `"refresh_token":""`) {
		t.Error("Empty refresh_token should be omitted")
	}
}

func TestCredentials_OptionalFieldsOmitted(t *testing.T) {
	creds := Credentials{
		AccessToken: "access-token",
		ExpiryDate:  time.Now(),
		Scopes:      []string{"https://www.googleapis.com/auth/gmail.modify"},
		Type:        AuthTypeOAuth,
	}

	data, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	jsonStr := string(data)

	if strings.Contains(jsonStr, `"service_account_email":""`) {
		t.Error("Empty service_account_email should be omitted")
	}

	if strings.Contains(jsonStr, `"impersonated_user":""`) {
		t.Error("Empty impersonated_user should be omitted")
	}
}

func TestCredentials_MultipleScopes(t *testing.T) {
	scopes := []string{
		"https://www.googleapis.com/auth/gmail.modify",
		"https://www.googleapis.com/auth/gmail.send",
		"https://www.googleapis.com/auth/gmail.labels",
	}

	creds := Credentials{
		AccessToken: "access-token",
		ExpiryDate:  time.Now(),
		Scopes:      scopes,
		Type:        AuthTypeOAuth,
	}

	if len(creds.Scopes) != len(scopes) {
		t.Errorf("Scopes length = %d, want %d", len(creds.Scopes), len(scopes))
	}

	for i, scope := range creds.Scopes {
		if scope != scopes[i] {
			t.Errorf("Scope[%d] = %s, want %s", i, scope, scopes[i])
		}
	}
}

func TestCredentials_ExpiryDateHandling(t *testing.T) {
	now := time.Now()
	future := now.Add(1 * time.Hour)
	past := now.Add(-1 * time.Hour)

	tests := []struct {
		name       string
		expiryDate time.Time
	}{
		{"future expiry", future},
		{"past expiry", past},
		{"current time", now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := Credentials{
				AccessToken: "access-token",
				ExpiryDate:  tt.expiryDate,
				Scopes:      []string{"https://www.googleapis.com/auth/gmail.modify"},
				Type:        AuthTypeOAuth,
			}

			if !creds.ExpiryDate.Equal(tt.expiryDate) {
				t.Errorf("ExpiryDate = %v, want %v", creds.ExpiryDate, tt.expiryDate)
			}
		})
	}
}
