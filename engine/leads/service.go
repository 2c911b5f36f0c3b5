package leads

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pharens/pharens-ai/pkg/logger"
	"github.com/pharens/pharens-ai/pkg/phone"
)

const msgInvalidPhone = "Please enter a valid phone number (e.g., 0602785621 or +27602785621)"

// Service validates and normalizes submissions before storing them.
// A Service with a nil repository answers every call with ErrNotConfigured.
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Service{repo: repo, validate: v, now: time.Now}
}

func (s *Service) Configured() bool { return s != nil && s.repo != nil }

// CaptureLead stores a contact-form lead and returns its id. The phone, when
// present, is stored in E.164.
func (s *Service) CaptureLead(ctx context.Context, in Lead) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	lead := Lead{
		Name:      strings.TrimSpace(in.Name),
		Email:     normalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Business:  strings.TrimSpace(in.Business),
		Interest:  strings.TrimSpace(in.Interest),
		Challenge: strings.TrimSpace(in.Challenge),
	}
	if err := s.check(lead); err != nil {
		return "", err
	}
	if lead.Phone != "" {
		e164, err := phone.Normalize(lead.Phone)
		if err != nil {
			return "", &ValidationError{Field: "phone", Message: msgInvalidPhone}
		}
		lead.Phone = e164
	}
	rec := Record[Lead]{ID: uuid.NewString(), CreatedAt: s.now().UTC(), Value: lead}
	if err := s.repo.InsertLead(ctx, rec); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Info("Lead captured", "lead_id", rec.ID, "interest", lead.Interest)
	return rec.ID, nil
}

// Subscribe adds email to the newsletter list and returns the subscription id.
func (s *Service) Subscribe(ctx context.Context, email string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	sub := Subscription{Email: normalizeEmail(email)}
	if err := s.check(sub); err != nil {
		return "", err
	}
	rec := Record[Subscription]{ID: uuid.NewString(), CreatedAt: s.now().UTC(), Value: sub}
	if err := s.repo.InsertSubscription(ctx, rec); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Info("Newsletter subscription added", "subscription_id", rec.ID)
	return rec.ID, nil
}

func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate submission: %w", err)
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please enter a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
