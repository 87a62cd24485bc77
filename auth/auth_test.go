package auth

import (
	"casechat/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func init() {
	SetSigningKey("test-signing-key-not-for-production")
}

func TestToken_RoundTrip_Carries_Identity(t *testing.T) {
	req := require.New(t)
	user := domain.User{
		ID:          "user-1",
		Role:        domain.RoleLawyer,
		DisplayName: "Bob",
		Email:       "bob@example.com",
	}

	token, err := GenerateToken(user, time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal(domain.RoleLawyer, claims.Role)
	req.Equal("Bob", claims.DisplayName)
}

func TestToken_Expired_Is_Rejected(t *testing.T) {
	req := require.New(t)
	user := domain.User{ID: "user-1", Role: domain.RoleClient, DisplayName: "Alice"}

	token, err := GenerateToken(user, -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}

func TestToken_Garbage_Is_Rejected(t *testing.T) {
	req := require.New(t)
	_, err := ValidateToken("not.a.token")
	req.Error(err)
}

func TestPassword_Hash_And_Compare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Str0ng&Secret!pw")
	req.NoError(err)
	req.NotContains(hash, "Str0ng&Secret!pw")

	match, err := ComparePassword("Str0ng&Secret!pw", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong password", hash)
	req.NoError(err)
	req.False(match)
}

func TestPassword_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Str0ng&Secret!pw")
	req.NoError(err)
	second, err := HashPassword("Str0ng&Secret!pw")
	req.NoError(err)

	req.NotEqual(first, second)
}

func TestValidateRegister_Password_Rules(t *testing.T) {
	valid := RegisterRequest{
		Email:       "alice@example.com",
		Password:    "Str0ng&Secret!pw",
		DisplayName: "Alice",
		Role:        "CLIENT",
	}

	tests := []struct {
		name    string
		mutate  func(r *RegisterRequest)
		wantErr bool
	}{
		{name: "valid request", mutate: func(r *RegisterRequest) {}, wantErr: false},
		{name: "too short", mutate: func(r *RegisterRequest) { r.Password = "Sh0rt&pw" }, wantErr: true},
		{name: "no uppercase", mutate: func(r *RegisterRequest) { r.Password = "all0wer&secretpw" }, wantErr: true},
		{name: "no special", mutate: func(r *RegisterRequest) { r.Password = "Str0ngSecretpw1" }, wantErr: true},
		{name: "bad email", mutate: func(r *RegisterRequest) { r.Email = "not-an-email" }, wantErr: true},
		{name: "bad role", mutate: func(r *RegisterRequest) { r.Role = "ROOT" }, wantErr: true},
		{name: "empty display name", mutate: func(r *RegisterRequest) { r.DisplayName = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			request := valid
			tt.mutate(&request)
			err := ValidateRegister(request)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}
