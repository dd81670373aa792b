package auth

import (
	"context"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
)

// Profile is the subset of the provider's user record mirrored locally.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
	ImageURL  string
}

// ProfileSource fetches profile attributes for a verified subject.
type ProfileSource interface {
	Profile(ctx context.Context, subject string) (*Profile, error)
}

// ClerkProfiles reads users from the Clerk backend API.
type ClerkProfiles struct{}

// NewClerkProfiles configures the Clerk SDK. It returns nil without a key so
// provisioning falls back to token claims.
func NewClerkProfiles(secretKey string) *ClerkProfiles {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil
	}
	clerk.SetKey(key)
	return &ClerkProfiles{}
}

func (ClerkProfiles) Profile(ctx context.Context, subject string) (*Profile, error) {
	usr, err := clerkuser.Get(ctx, subject)
	if err != nil {
		return nil, err
	}
	return profileFromClerk(usr), nil
}

func profileFromClerk(usr *clerk.User) *Profile {
	if usr == nil {
		return &Profile{}
	}
	out := &Profile{
		FirstName: deref(usr.FirstName),
		LastName:  deref(usr.LastName),
		ImageURL:  deref(usr.ImageURL),
	}
	primary := deref(usr.PrimaryEmailAddressID)
	for _, addr := range usr.EmailAddresses {
		if addr == nil {
			continue
		}
		if out.Email == "" || addr.ID == primary {
			out.Email = addr.EmailAddress
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
