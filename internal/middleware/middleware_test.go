package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserIDFromContext(r.Context())))
	})
}

func TestIdentify(t *testing.T) {
	auth := NewAuth("secret", "classroom_session", time.Hour, zerolog.Nop())
	token, err := auth.IssueToken("profile-1")
	require.NoError(t, err)

	other := NewAuth("other-secret", "classroom_session", time.Hour, zerolog.Nop())
	forged, err := other.IssueToken("profile-1")
	require.NoError(t, err)

	expired := NewAuth("secret", "classroom_session", -time.Minute, zerolog.Nop())
	stale, err := expired.IssueToken("profile-1")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "profile-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    string
	}{
		{name: "anonymous", prepare: func(*http.Request) {}, want: ""},
		{name: "bearer", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, want: "profile-1"},
		{name: "lowercase scheme", prepare: func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) }, want: "profile-1"},
		{name: "cookie", prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "classroom_session", Value: token}) }, want: "profile-1"},
		{name: "wrong key", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+forged) }, want: ""},
		{name: "expired", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+stale) }, want: ""},
		{name: "unsigned", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+noneToken) }, want: ""},
		{name: "garbage", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc.def") }, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			auth.Identify(echoUser()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestSetCookie(t *testing.T) {
	auth := NewAuth("secret", "classroom_session", time.Hour, zerolog.Nop())
	rec := httptest.NewRecorder()

	auth.SetCookie(rec, "tok")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "classroom_session", cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/servers?x=1", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(WithUserID(req.Context(), "u1")))

	out := buf.String()
	assert.Contains(t, out, `"message":"inside handler"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/api/v1/servers"`)
	assert.Contains(t, out, `"user_id":"u1"`)
}
