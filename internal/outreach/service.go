package outreach

import (
	"context"
	"fmt"
	"strings"

	"github.com/cellarwise/cellarwise-backend/pkg/email"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

const defaultSignupSource = "landing"

type signupStore interface {
	InsertSignup(ctx context.Context, email, source string) (bool, error)
}

type ServiceParams struct {
	Store        signupStore
	Mailer       email.Sender
	SupportEmail string
	Logger       *logger.Logger
}

type Service struct {
	store   signupStore
	mailer  email.Sender
	support string
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("signup store required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if strings.TrimSpace(params.SupportEmail) == "" {
		return nil, fmt.Errorf("support email required")
	}
	return &Service{
		store:   params.Store,
		mailer:  params.Mailer,
		support: params.SupportEmail,
		logg:    params.Logger,
	}, nil
}

// Contact forwards a contact form submission to the support inbox. Delivery
// failures are returned to the caller.
func (s *Service) Contact(ctx context.Context, input ContactInput) error {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		subject = "New contact form message"
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", strings.TrimSpace(input.Name), strings.TrimSpace(input.Email), strings.TrimSpace(input.Message))
	err := s.mailer.Send(ctx, email.Message{
		To:       s.support,
		ReplyTo:  strings.TrimSpace(input.Email),
		Subject:  "[Contact] " + subject,
		Tag:      "contact",
		TextBody: body,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "failed to send message")
	}
	return nil
}

// SignupEmail adds the address to the mailing list and sends a welcome
// email on first signup. The welcome email is best effort.
func (s *Service) SignupEmail(ctx context.Context, input SignupInput) (*SignupResult, error) {
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = defaultSignupSource
	}
	created, err := s.store.InsertSignup(ctx, input.Email, source)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save email signup")
	}
	if !created {
		return &SignupResult{Message: "You're already on the list", AlreadySubscribed: true}, nil
	}

	if err := s.mailer.Send(ctx, welcomeMessage(input.Email)); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "source", source), "outreach.welcome_email_failed", err)
	}
	return &SignupResult{Message: "Thanks for signing up"}, nil
}

func welcomeMessage(to string) email.Message {
	return email.Message{
		To:      strings.TrimSpace(to),
		Subject: "Welcome to Cellarwise",
		Tag:     "welcome",
		TextBody: "Thanks for joining Cellarwise.\n\n" +
			"We'll let you know about new features, pairing guides and cellar tips.\n",
	}
}
