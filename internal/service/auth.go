package service

import (
	"github.com/clerk/clerk-sdk-go/v2"

	"github.com/voltride/voltride/internal/server"
)

// AuthService initializes the Clerk SDK with the secret key so the auth
// middleware can validate bearer tokens.
type AuthService struct {
	server *server.Server
}

func NewAuthService(s *server.Server) *AuthService {
	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthService{
		server: s,
	}
}
