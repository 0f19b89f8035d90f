package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret     = "test-secret"
	testPaymentSecret = "test-payment-secret"
)

type testAPI struct {
	handler  http.Handler
	users    *mockUserService
	wallets  *mockWalletService
	bets     *mockBetService
	disputes *mockDisputeService
}

func newTestAPI(t *testing.T, configure ...func(*Options)) *testAPI {
	t.Helper()

	api := &testAPI{
		users:    new(mockUserService),
		wallets:  new(mockWalletService),
		bets:     new(mockBetService),
		disputes: new(mockDisputeService),
	}
	opts := Options{
		JWTSecret:      testJWTSecret,
		PaymentSecret:  testPaymentSecret,
		AllowedOrigins: []string{"https://app.example"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	api.handler = NewRouter(Services{
		Users:    api.users,
		Wallets:  api.wallets,
		Bets:     api.bets,
		Disputes: api.disputes,
	}, opts)

	t.Cleanup(func() {
		api.users.AssertExpectations(t)
		api.wallets.AssertExpectations(t)
		api.bets.AssertExpectations(t)
		api.disputes.AssertExpectations(t)
	})
	return api
}

func signToken(t *testing.T, userID int64, role string) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r response) decodeData(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dst))
}

func (r response) kind(t *testing.T) string {
	t.Helper()
	var data errorData
	r.decodeData(t, &data)
	return string(data.Kind)
}

func (a *testAPI) request(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var resp response
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

// as sends an authenticated request for userID with the given role
func (a *testAPI) as(t *testing.T, userID int64, role, method, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	return a.request(t, method, path, body, map[string]string{
		"Authorization": "Bearer " + signToken(t, userID, role),
	})
}
