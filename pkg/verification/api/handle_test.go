package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-verify/pkg/account"
	"github.com/tendant/simple-verify/pkg/dbx"
	"github.com/tendant/simple-verify/pkg/notification"
	"github.com/tendant/simple-verify/pkg/verification"
)

// fakeSessionStarter records session starts instead of setting cookies
type fakeSessionStarter struct {
	started []uuid.UUID
}

func (f *fakeSessionStarter) StartSession(w http.ResponseWriter, accountID uuid.UUID) error {
	f.started = append(f.started, accountID)
	return nil
}

func newTestHandler(t *testing.T, opts ...HandlerOption) (*Handler, account.Repository, *verification.VerificationService) {
	t.Helper()

	nm, err := notification.NewNotificationManager(
		notification.WithNotifier(notification.EmailSystem, &notification.MockNotifier{}),
	)
	require.NoError(t, err)

	accounts := account.NewInMemRepository()
	service := verification.NewVerificationService(
		verification.NewInMemRepository(),
		accounts,
		dbx.NoopTxBeginner{},
		nm,
		"http://localhost:8080/account",
	)

	return NewHandler(service, opts...), accounts, service
}

func TestPresentKey(t *testing.T) {
	ctx := context.Background()
	starter := &fakeSessionStarter{}
	handler, accounts, service := newTestHandler(t, WithSessionStarter(starter))
	router := handler.Routes()

	acct, err := accounts.CreateAccount(ctx, "alice@example.com")
	require.NoError(t, err)
	key, err := service.Issue(ctx, acct)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify?key="+key, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp PresentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice@example.com", resp.Login)

	// GET must not verify the account or start a session
	stored, err := accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.StatusUnverified, stored.Status)
	assert.Empty(t, starter.started)

	t.Run("MissingKey", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify?key=unknown", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRedeemKey(t *testing.T) {
	ctx := context.Background()
	starter := &fakeSessionStarter{}
	handler, accounts, service := newTestHandler(t, WithSessionStarter(starter))
	router := handler.Routes()

	acct, err := accounts.CreateAccount(ctx, "bob@example.com")
	require.NoError(t, err)
	key, err := service.Issue(ctx, acct)
	require.NoError(t, err)

	body := `{"key":"` + key + `"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp RedeemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.LoggedIn)
	assert.Equal(t, []uuid.UUID{acct.ID}, starter.started)

	stored, err := accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.StatusOpen, stored.Status)

	t.Run("SecondRedeemFails", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(body)))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRedeemKeyNoAutoLogin(t *testing.T) {
	ctx := context.Background()
	starter := &fakeSessionStarter{}

	nm, err := notification.NewNotificationManager(
		notification.WithNotifier(notification.EmailSystem, &notification.MockNotifier{}),
	)
	require.NoError(t, err)

	accounts := account.NewInMemRepository()
	service := verification.NewVerificationService(
		verification.NewInMemRepository(),
		accounts,
		dbx.NoopTxBeginner{},
		nm,
		"http://localhost:8080/account",
		verification.WithAutoLogin(false),
	)
	router := NewHandler(service, WithSessionStarter(starter)).Routes()

	acct, err := accounts.CreateAccount(ctx, "carol@example.com")
	require.NoError(t, err)
	key, err := service.Issue(ctx, acct)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(`{"key":"`+key+`"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp RedeemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.LoggedIn)
	assert.Empty(t, starter.started)
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()
	handler, accounts, service := newTestHandler(t)
	router := handler.Routes()

	acct, err := accounts.CreateAccount(ctx, "dave@example.com")
	require.NoError(t, err)
	_, err = service.Issue(ctx, acct)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/resend",
		strings.NewReader(`{"login":"dave@example.com"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("UnknownLogin", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/resend",
			strings.NewReader(`{"login":"nobody@example.com"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestResendRouteDisabled(t *testing.T) {
	handler, _, _ := newTestHandler(t, WithResendEnabled(false))
	router := handler.Routes()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/resend",
		strings.NewReader(`{"login":"dave@example.com"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
