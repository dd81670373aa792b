package controllers

import (
	"context"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/api/validators"
	"github.com/cellarwise/cellarwise-backend/internal/outreach"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

type outreachService interface {
	Contact(ctx context.Context, input outreach.ContactInput) error
	SignupEmail(ctx context.Context, input outreach.SignupInput) (*outreach.SignupResult, error)
}

func Contact(svc outreachService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input outreach.ContactInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Contact(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Message sent successfully"})
	}
}

func EmailSignup(svc outreachService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input outreach.SignupInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.SignupEmail(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
