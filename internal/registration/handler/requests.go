package handler

import (
	"strings"

	dErrors "sendcore/pkg/domain-errors"

	"sendcore/internal/registration/models"
)

// RegisterRequest is the HTTP request body for POST /a2p/register.
type RegisterRequest struct {
	BusinessName     string   `json:"business_name"`
	EIN              string   `json:"ein"`
	Website          string   `json:"website"`
	Address          string   `json:"address"`
	ContactName      string   `json:"contact_name"`
	ContactEmail     string   `json:"contact_email"`
	ContactPhone     string   `json:"contact_phone"`
	SampleMessages   []string `json:"sample_messages"`
	OptInDescription string   `json:"opt_in_description"`
	Volume           string   `json:"volume"`
	UseCaseCode      string   `json:"use_case_code"`

	facts models.BusinessFacts
}

// Normalize canonicalizes the payload before validation.
func (r *RegisterRequest) Normalize() {
	if r == nil {
		return
	}
	r.facts = models.BusinessFacts{
		BusinessName:     r.BusinessName,
		EIN:              r.EIN,
		Website:          r.Website,
		Address:          r.Address,
		ContactName:      r.ContactName,
		ContactEmail:     r.ContactEmail,
		ContactPhone:     r.ContactPhone,
		SampleMessages:   r.SampleMessages,
		OptInDescription: r.OptInDescription,
		Volume:           r.Volume,
		UseCaseCode:      r.UseCaseCode,
	}
	r.facts.Normalize()
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return r.facts.Validate()
}

// Facts returns the normalized business facts.
func (r *RegisterRequest) Facts() models.BusinessFacts {
	return r.facts
}

// StatusCallbackRequest is the HTTP request body for POST /a2p/status-callback.
// The vendor identifies the object by its handle; which registration axis it
// belongs to is resolved from the stored profile, not from the payload.
type StatusCallbackRequest struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Normalize canonicalizes the payload before validation.
func (r *StatusCallbackRequest) Normalize() {
	if r == nil {
		return
	}
	r.SID = strings.TrimSpace(r.SID)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

// Validate validates the request.
func (r *StatusCallbackRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.SID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "sid is required")
	}
	if r.Status == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "status is required")
	}
	return nil
}
