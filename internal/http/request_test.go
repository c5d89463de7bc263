package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tracker/internal/core"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-05T13:45:00Z", time.Date(2024, 3, 5, 13, 45, 0, 0, time.UTC)},
		{"2024-03-05T13:45:00+02:00", time.Date(2024, 3, 5, 11, 45, 0, 0, time.UTC)},
		{"2024-03-05T13:45:00.123456", time.Date(2024, 3, 5, 13, 45, 0, 123456000, time.UTC)},
		{"2024-03-05T13:45:00", time.Date(2024, 3, 5, 13, 45, 0, 0, time.UTC)},
		{"2024-03-05T13:45", time.Date(2024, 3, 5, 13, 45, 0, 0, time.UTC)},
		{"2024-03-05 13:45:00", time.Date(2024, 3, 5, 13, 45, 0, 0, time.UTC)},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in)
			require.NoError(t, err)
			require.True(t, got.Equal(tt.want), got)
			require.Equal(t, time.UTC, got.Location())
		})
	}

	for _, bad := range []string{"", "yesterday", "2024-02-30", "05/03/2024"} {
		_, err := parseDate(bad)
		require.ErrorIs(t, err, core.ErrValidation, bad)
	}
}

func TestDecodeUpdateDistinguishesAbsentFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/transactions/x",
		strings.NewReader(`{"category":"Rent","description":"","amount":null}`))

	var body updateTransactionRequest
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &body))

	p := body.toPatch()
	require.NotNil(t, p.Category)
	require.Equal(t, "Rent", *p.Category)
	require.NotNil(t, p.Description)
	require.Equal(t, "", *p.Description)
	require.Nil(t, p.Amount)
	require.Nil(t, p.Type)
	require.Nil(t, p.Date)
	require.Nil(t, p.Currency)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@example.com","password":"x"} {}`))

	var body loginRequest
	err := decodeJSON(httptest.NewRecorder(), req, &body)
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestDecodeAmountForms(t *testing.T) {
	for in, want := range map[string]string{
		`12`:      "12",
		`12.345`:  "12.345",
		`"7.50"`:  "7.5",
		`"0.001"`: "0.001",
	} {
		var a jsonAmount
		require.NoError(t, a.UnmarshalJSON([]byte(in)), in)
		require.Equal(t, want, a.String(), in)
	}
	for _, in := range []string{`0`, `-1`, `"abc"`, `1e3`, `true`, `"1,000"`, `"7,50"`} {
		var a jsonAmount
		err := a.UnmarshalJSON([]byte(in))
		require.Error(t, err, in)
		require.ErrorIs(t, err, core.ErrValidation, in)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		require.Equal(t, tt.want, bearerToken(req), tt.header)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.NewValidationError("amount", "bad"), http.StatusBadRequest},
		{core.ErrEmailTaken, http.StatusBadRequest},
		{core.ErrUnauthenticated, http.StatusUnauthorized},
		{core.ErrInvalidCredentials, http.StatusUnauthorized},
		{core.ErrNotFound, http.StatusNotFound},
		{http.ErrHandlerTimeout, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, httptest.NewRequest(http.MethodGet, "/summary", nil), http.ErrHandlerTimeout)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"detail":"Internal server error"}`, rr.Body.String())
}
