package auth

import (
	"context"

	"github.com/MHC32/Rise/internal/models"
)

// Authenticator is the credential-verification seam. Password auth is the
// only implementation today; the interface keeps the door open for OTP or
// OAuth without touching callers.
type Authenticator interface {
	// Register creates a user from an email and a credential. The
	// credential format depends on the implementation.
	Register(ctx context.Context, email, name, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the matching user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the
	// implementation's requirements before any storage is touched.
	ValidateCredential(credential string) error
}
