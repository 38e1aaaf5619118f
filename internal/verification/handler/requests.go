package handler

import (
	"strings"

	"vitrina/internal/verification/models"
	dErrors "vitrina/pkg/domain-errors"
)

// IssuePhoneRequest is the HTTP request body for POST /verification/phone.
type IssuePhoneRequest struct {
	Phone string `json:"phone"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *IssuePhoneRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Phone == "" {
		return dErrors.New(dErrors.CodeValidation, "phone is required")
	}
	if len(r.Phone) > 32 {
		return dErrors.New(dErrors.CodeValidation, "phone must be at most 32 characters")
	}
	return nil
}

// IssueEmailRequest is the HTTP request body for POST /verification/email.
// The current password re-authenticates the caller before a code is issued
// for the new address.
type IssueEmailRequest struct {
	NewEmail        string `json:"new_email"`
	CurrentPassword string `json:"current_password"`
}

func (r *IssueEmailRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.NewEmail = strings.TrimSpace(r.NewEmail)
	if r.NewEmail == "" {
		return dErrors.New(dErrors.CodeValidation, "new_email is required")
	}
	if len(r.NewEmail) > 254 {
		return dErrors.New(dErrors.CodeValidation, "new_email must be at most 254 characters")
	}
	if r.CurrentPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "current_password is required")
	}
	return nil
}

// VerifyRequest is the HTTP request body for POST /verification/verify.
type VerifyRequest struct {
	Channel string `json:"channel"`
	Target  string `json:"target"`
	Code    string `json:"code"`

	parsedChannel models.Channel
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	channel, err := models.ParseChannel(strings.TrimSpace(r.Channel))
	if err != nil {
		return err
	}
	r.parsedChannel = channel

	r.Target = strings.TrimSpace(r.Target)
	if r.Target == "" {
		return dErrors.New(dErrors.CodeValidation, "target is required")
	}
	r.Code = strings.TrimSpace(r.Code)
	if len(r.Code) != 6 {
		return dErrors.New(dErrors.CodeValidation, "code must be 6 digits")
	}
	return nil
}

// ParsedChannel returns the validated channel.
func (r *VerifyRequest) ParsedChannel() models.Channel {
	return r.parsedChannel
}
