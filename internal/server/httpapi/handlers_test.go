package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dinneconnect/auth-service/internal/config"
	"github.com/dinneconnect/auth-service/internal/crypto"
	"github.com/dinneconnect/auth-service/internal/limiter"
	"github.com/dinneconnect/auth-service/internal/model"
	"github.com/dinneconnect/auth-service/internal/service"
	"github.com/dinneconnect/auth-service/internal/store"
	"github.com/dinneconnect/auth-service/internal/token"
)

func newTestRouter(t *testing.T, expose bool) *gin.Engine {
	t.Helper()

	s, err := store.Open[model.Account](filepath.Join(t.TempDir(), "users.json"), zap.NewNop())
	require.NoError(t, err)

	cfg := config.Config{ExposeTestListing: expose}
	cfg.HTTP.CORSOrigins = []string{"*"}

	dir := service.NewDirectory(s, crypto.Argon2{}, limiter.NewMemory(time.Minute, 100, time.Minute))
	tokens := token.NewService([]byte("0123456789abcdef0123456789abcdef"), 30*time.Minute, "dinneconnect.auth.system")
	return New(zap.NewNop(), cfg, tokens, dir).Router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, r *gin.Engine, username, email, cred string) {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/post-user/", "", map[string]string{
		"name": "Sebastian", "surname": "Avendano",
		"username": username, "email": email, "credential": cred,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func login(t *testing.T, r *gin.Engine, identifier, cred string) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/generate-token/", "", map[string]string{
		"username_or_email": identifier, "credential": cred,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.True(t, resp.Expiry.After(time.Now()))
	return resp.Token
}

func errKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Kind
}

func TestRegisterLoginAndProfile(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, false)

	register(t, r, "sebas1", "s@x.com", "pw1")
	tok := login(t, r, "sebas1", "pw1")

	rec := doJSON(t, r, http.MethodGet, "/api/user/", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "sebas1", profile.Username)
	require.Equal(t, "s@x.com", profile.Email)
	require.False(t, profile.Verified)

	// the credential never appears in any payload
	require.NotContains(t, rec.Body.String(), "credential")
	require.NotContains(t, rec.Body.String(), "pw1")

	// the same call with the token's final character altered is rejected.
	// Flip the top bit of the char's 6-bit group: the low bits are padding
	// the base64url decoder ignores.
	const b64url = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	idx := strings.IndexByte(b64url, tok[len(tok)-1])
	tampered := tok[:len(tok)-1] + string(b64url[idx^32])
	rec = doJSON(t, r, http.MethodGet, "/api/user/", tampered, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "bad_signature", errKind(t, rec))

	// email works as login identifier too
	_ = login(t, r, "s@x.com", "pw1")
}

func TestGenerateToken_BadCredentials(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, false)
	register(t, r, "sebas1", "s@x.com", "pw1")

	rec := doJSON(t, r, http.MethodPost, "/api/generate-token/", "", map[string]string{
		"username_or_email": "sebas1", "credential": "wrong",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_credential", errKind(t, rec))

	rec = doJSON(t, r, http.MethodPost, "/api/generate-token/", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_failure", errKind(t, rec))
}

func TestRegister_DuplicateAndInvalid(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, false)
	register(t, r, "sebas1", "s@x.com", "pw1")

	// duplicate email on a second registration
	rec := doJSON(t, r, http.MethodPost, "/api/post-user/", "", map[string]string{
		"name": "Other", "surname": "User",
		"username": "other", "email": "s@x.com", "credential": "pw",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "duplicate_unique_field", errKind(t, rec))

	// invalid email format
	rec = doJSON(t, r, http.MethodPost, "/api/post-user/", "", map[string]string{
		"name": "Other", "surname": "User",
		"username": "other", "email": "not-an-email", "credential": "pw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_failure", errKind(t, rec))
}

func TestVerifyToken(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, false)
	register(t, r, "sebas1", "s@x.com", "pw1")
	tok := login(t, r, "sebas1", "pw1")

	rec := doJSON(t, r, http.MethodGet, "/api/verify-token/", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var claims claimsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claims))
	require.NotEmpty(t, claims.Subject)
	require.Equal(t, "dinneconnect.auth.system", claims.Issuer)
	require.Greater(t, claims.ExpiresAt, claims.IssuedAt)

	// header lacking the Bearer prefix is an unsupported format, not a crash
	req := httptest.NewRequest(http.MethodGet, "/api/verify-token/", nil)
	req.Header.Set("Authorization", "Token "+tok)
	raw := httptest.NewRecorder()
	r.ServeHTTP(raw, req)
	require.Equal(t, http.StatusBadRequest, raw.Code)
	require.Equal(t, "unsupported_format", errKind(t, raw))

	// the prefix match is case-sensitive
	req = httptest.NewRequest(http.MethodGet, "/api/verify-token/", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	raw = httptest.NewRecorder()
	r.ServeHTTP(raw, req)
	require.Equal(t, http.StatusBadRequest, raw.Code)
	require.Equal(t, "unsupported_format", errKind(t, raw))

	// missing header entirely
	rec = doJSON(t, r, http.MethodGet, "/api/verify-token/", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "empty_token", errKind(t, rec))
}

func TestUpdatePrimary(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, false)
	register(t, r, "sebas1", "s@x.com", "pw1")
	tok := login(t, r, "sebas1", "pw1")

	// all-null body is a distinct no-op failure
	rec := doJSON(t, r, http.MethodPost, "/api/user/primary/", tok, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no_changes", errKind(t, rec))

	rec = doJSON(t, r, http.MethodPost, "/api/user/primary/", tok, map[string]string{"name": "Seb"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "Seb", profile.Name)
	require.Equal(t, "sebas1", profile.Username)
}

func TestUpdatePasswordAndDelete(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, false)
	register(t, r, "sebas1", "s@x.com", "pw1")
	tok := login(t, r, "sebas1", "pw1")

	rec := doJSON(t, r, http.MethodPost, "/api/user/password/", tok, map[string]string{"new_credential": "pw2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// old secret no longer works, new one does
	rec = doJSON(t, r, http.MethodPost, "/api/generate-token/", "", map[string]string{
		"username_or_email": "sebas1", "credential": "pw1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	_ = login(t, r, "sebas1", "pw2")

	rec = doJSON(t, r, http.MethodDelete, "/api/user/", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// token still verifies but the account is gone
	rec = doJSON(t, r, http.MethodGet, "/api/user/", tok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", errKind(t, rec))

	rec = doJSON(t, r, http.MethodDelete, "/api/user/", tok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	t.Parallel()

	s, err := store.Open[model.Account](filepath.Join(t.TempDir(), "users.json"), zap.NewNop())
	require.NoError(t, err)
	dir := service.NewDirectory(s, crypto.Argon2{}, limiter.NewMemory(time.Minute, 100, time.Minute))

	// issue with a clock an hour in the past so the token is already dead
	past := time.Now().Add(-time.Hour)
	stale := token.NewService([]byte("0123456789abcdef0123456789abcdef"), 30*time.Minute, "iss").
		WithClock(func() time.Time { return past })
	_, err = dir.Create(context.Background(), model.NewAccountInput{
		Name: "S", Surname: "A", Username: "sebas1", Email: "s@x.com", Credential: "pw1",
	})
	require.NoError(t, err)
	acc, err := dir.GetByUsername(context.Background(), "sebas1")
	require.NoError(t, err)
	signed, _, err := stale.Issue(acc.ID)
	require.NoError(t, err)

	live := token.NewService([]byte("0123456789abcdef0123456789abcdef"), 30*time.Minute, "iss")
	cfg := config.Config{}
	cfg.HTTP.CORSOrigins = []string{"*"}
	r := New(zap.NewNop(), cfg, live, dir).Router()

	rec := doJSON(t, r, http.MethodGet, "/api/user/", signed, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "expired", errKind(t, rec))
}

func TestTestingListingGate(t *testing.T) {
	t.Parallel()

	// disabled: the route does not exist
	r := newTestRouter(t, false)
	rec := doJSON(t, r, http.MethodGet, "/api/user/all/testing", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// enabled: unauthenticated listing, profiles only
	r = newTestRouter(t, true)
	register(t, r, "sebas1", "s@x.com", "pw1")
	rec = doJSON(t, r, http.MethodGet, "/api/user/all/testing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profiles []profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
	require.Len(t, profiles, 1)
	require.Equal(t, "sebas1", profiles[0].Username)
	require.NotContains(t, rec.Body.String(), "pw1")
}
