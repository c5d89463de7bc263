package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/services"
)

const maxBodyBytes = 1 << 20

// Accepted request date layouts, tried in order. Layouts without a zone
// are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type (
	registerRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Name     string `json:"name"`
	}

	loginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	createTransactionRequest struct {
		Type        string      `json:"type" validate:"required,oneof=income expense"`
		Amount      *jsonAmount `json:"amount" validate:"required"`
		Currency    *string     `json:"currency"`
		Category    string      `json:"category" validate:"required"`
		Description *string     `json:"description"`
		Date        *jsonDate   `json:"date"`
	}

	// updateTransactionRequest fields are nil when absent or null.
	updateTransactionRequest struct {
		Type        *string     `json:"type" validate:"omitempty,oneof=income expense"`
		Amount      *jsonAmount `json:"amount"`
		Currency    *string     `json:"currency"`
		Category    *string     `json:"category"`
		Description *string     `json:"description"`
		Date        *jsonDate   `json:"date"`
	}
)

// jsonAmount accepts a JSON number or a numeric string and keeps it exact.
type jsonAmount struct {
	decimal.Decimal
}

func (a *jsonAmount) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return core.NewValidationError("amount", "must be a number")
		}
		s = unq
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// jsonDate accepts RFC 3339, a zone-less datetime or a bare date.
type jsonDate struct {
	time.Time
}

func (d *jsonDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return core.NewValidationError("date", "must be a datetime string")
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, core.NewValidationError("date", "must be an ISO 8601 date or datetime")
}

// decodeJSON reads one JSON object from the body into dst and validates it.
// Every failure comes back as a *core.ValidationError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.NewValidationError("body", "must contain a single JSON object")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func decodeError(err error) error {
	var (
		ve       *core.ValidationError
		typeErr  *json.UnmarshalTypeError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		return ve
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return core.NewValidationError(field, "must be of type %s", jsonTypeName(typeErr.Type))
	case errors.As(err, &tooLarge):
		return core.NewValidationError("body", "exceeds %d bytes", tooLarge.Limit)
	case errors.Is(err, io.EOF):
		return core.NewValidationError("body", "field required")
	default:
		return core.NewValidationError("body", "invalid JSON")
	}
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return core.NewValidationError("body", "invalid request")
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return core.NewValidationError(fe.Field(), "field required")
	case "email":
		return core.NewValidationError(fe.Field(), "value is not a valid email address")
	case "oneof":
		return core.NewValidationError(fe.Field(), "must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return core.NewValidationError(fe.Field(), "failed %s validation", fe.Tag())
	}
}

func (req registerRequest) toRegistration() services.Registration {
	return services.Registration{Email: req.Email, Password: req.Password, Name: req.Name}
}

func (req createTransactionRequest) toNewTransaction() core.NewTransaction {
	n := core.NewTransaction{
		Type:     core.Kind(req.Type),
		Amount:   req.Amount.Decimal,
		Category: req.Category,
	}
	if req.Currency != nil {
		n.Currency = *req.Currency
	}
	if req.Description != nil {
		n.Description = *req.Description
	}
	if req.Date != nil {
		d := req.Date.Time
		n.Date = &d
	}
	return n
}

func (req updateTransactionRequest) toPatch() core.TransactionPatch {
	var p core.TransactionPatch
	if req.Type != nil {
		k := core.Kind(*req.Type)
		p.Type = &k
	}
	if req.Amount != nil {
		a := req.Amount.Decimal
		p.Amount = &a
	}
	p.Currency = req.Currency
	p.Category = req.Category
	p.Description = req.Description
	if req.Date != nil {
		d := req.Date.Time
		p.Date = &d
	}
	return p
}

// bearerToken extracts the credential from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
