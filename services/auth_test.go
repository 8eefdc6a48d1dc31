package services

import (
	"net/http/httptest"
	"testing"
)

func cookieNames(rec *httptest.ResponseRecorder) map[string]string {
	values := make(map[string]string)
	for _, c := range rec.Result().Cookies() {
		values[c.Name] = c.Value
	}
	return values
}

func TestSetAuthCookiesSetsFullSet(t *testing.T) {
	svc := NewAuthService(nil, "secret")
	rec := httptest.NewRecorder()

	svc.SetAuthCookies(rec, "access", "refresh", "permanent")

	got := cookieNames(rec)
	want := map[string]string{
		"access_token":    "access",
		"refresh_token":   "refresh",
		"permanent_token": "permanent",
	}
	for name, value := range want {
		if got[name] != value {
			t.Errorf("cookie %s = %q, expected %q", name, got[name], value)
		}
	}
}

func TestSetAccessCookieLeavesOtherCookiesAlone(t *testing.T) {
	svc := NewAuthService(nil, "secret")
	rec := httptest.NewRecorder()

	svc.SetAccessCookie(rec, "rotated")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("set %d cookies, expected only the access token", len(cookies))
	}
	if cookies[0].Name != "access_token" || cookies[0].Value != "rotated" {
		t.Errorf("cookie = %s=%q, expected access_token=rotated", cookies[0].Name, cookies[0].Value)
	}
}

func TestClearAuthCookiesExpiresFullSet(t *testing.T) {
	svc := NewAuthService(nil, "secret")
	rec := httptest.NewRecorder()

	svc.ClearAuthCookies(rec)

	cleared := 0
	for _, c := range rec.Result().Cookies() {
		if c.Value == "" && c.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 3 {
		t.Errorf("cleared %d cookies, expected 3", cleared)
	}
}
