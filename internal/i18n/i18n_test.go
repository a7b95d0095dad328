package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"":                        DefaultLocale,
		"id":                      LocaleID,
		"id-ID,id;q=0.9,en;q=0.8": LocaleID,
		"zh-Hans-CN":              LocaleZH,
		"en-GB":                   LocaleEN,
		"fr-FR":                   DefaultLocale,
		"!!!":                     DefaultLocale,
	}
	for raw, want := range cases {
		if got := NormalizeLocale(raw); got != want {
			t.Fatalf("NormalizeLocale(%q)=%q want %q", raw, got, want)
		}
	}
}

func TestResolveLocalePrecedence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?lang=zh-CN", nil)
	c.Request.Header.Set("X-Locale", "id-ID")
	c.Request.Header.Set("Accept-Language", "en-US")
	if got := ResolveLocale(c); got != LocaleZH {
		t.Fatalf("query should win, got %s", got)
	}

	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("X-Locale", "id-ID")
	if got := ResolveLocale(c); got != LocaleID {
		t.Fatalf("header should be used, got %s", got)
	}
}

func TestTranslateFallback(t *testing.T) {
	if got := T(LocaleID, "error.cart_empty"); got != "Keranjang Anda kosong" {
		t.Fatalf("unexpected translation %q", got)
	}
	if got := T("xx-XX", "error.cart_empty"); got != messages[DefaultLocale]["error.cart_empty"] {
		t.Fatalf("unknown locale should fall back to default, got %q", got)
	}
	if got := T(LocaleEN, "error.missing_key"); got != "error.missing_key" {
		t.Fatalf("missing key should return key, got %q", got)
	}
	if got := Sprintf(LocaleEN, "error.store_closed", 10, 20); got != "Ordering is closed right now, opening hours are 10:00 to 20:00" {
		t.Fatalf("unexpected formatted message %q", got)
	}
}

func TestMessageBundlesHaveSameKeys(t *testing.T) {
	base := messages[DefaultLocale]
	for locale, bundle := range messages {
		for key := range base {
			if _, ok := bundle[key]; !ok {
				t.Fatalf("locale %s missing key %s", locale, key)
			}
		}
	}
}
