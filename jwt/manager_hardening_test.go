package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newHSManager(t *testing.T, now func() time.Time) *Manager {
	t.Helper()
	m, err := NewManager(Config{AccessTTL: 15 * time.Minute, SigningMethod: MethodHS256, PrivateKey: testSecret, Now: now})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestCreateAndParseHS256(t *testing.T) {
	now := time.Now()
	m := newHSManager(t, func() time.Time { return now })

	token, issued, err := m.CreateAccess("u1", "teacher")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if issued.ID == "" {
		t.Fatal("jti not set")
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "u1" || claims.Role != "teacher" || claims.ID != issued.ID {
		t.Fatalf("claims = %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(15 * time.Minute).Truncate(time.Second)) {
		t.Fatalf("exp = %v", claims.ExpiresAt.Time)
	}

	_, second, _ := m.CreateAccess("u1", "teacher")
	if second.ID == issued.ID {
		t.Fatal("jti reused across tokens")
	}
}

func TestParseAccessRejectsExpiredAndTampered(t *testing.T) {
	now := time.Now()
	m := newHSManager(t, func() time.Time { return now })
	token, _, err := m.CreateAccess("u1", "admin")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	other, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("ffffffffffffffffffffffffffffffff")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := other.ParseAccess(token); err == nil {
		t.Fatal("expected signature from another secret to fail")
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.ParseAccess(tampered); err == nil {
		t.Fatal("expected tampered signature to fail")
	}

	later := newHSManager(t, func() time.Time { return now.Add(16 * time.Minute) })
	if _, err := later.ParseAccess(token); !errors.Is(err, gjwt.ErrTokenExpired) {
		t.Fatalf("expired err = %v", err)
	}
}

func TestParseAccessRequiresExpiryAndSubject(t *testing.T) {
	m := newHSManager(t, nil)

	noExp := gjwt.NewWithClaims(gjwt.SigningMethodHS256, AccessClaims{Role: "admin", RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1"}})
	signed, _ := noExp.SignedString(testSecret)
	if _, err := m.ParseAccess(signed); err == nil {
		t.Fatal("expected token without exp to fail")
	}

	noSub := gjwt.NewWithClaims(gjwt.SigningMethodHS256, AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}})
	signed, _ = noSub.SignedString(testSecret)
	if _, err := m.ParseAccess(signed); err == nil {
		t.Fatal("expected token without sub to fail")
	}
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")}); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestExpiryOf(t *testing.T) {
	now := time.Now()
	m := newHSManager(t, func() time.Time { return now })
	token, _, _ := m.CreateAccess("u1", "parent")

	exp, err := ExpiryOf(token)
	if err != nil {
		t.Fatalf("ExpiryOf: %v", err)
	}
	if !exp.Equal(now.Add(15 * time.Minute).Truncate(time.Second)) {
		t.Fatalf("exp = %v", exp)
	}

	noExp := gjwt.NewWithClaims(gjwt.SigningMethodHS256, AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1"}})
	signed, _ := noExp.SignedString(testSecret)
	for _, tok := range []string{signed, "garbage", ""} {
		if _, err := ExpiryOf(tok); !errors.Is(err, ErrNoExpiry) {
			t.Fatalf("ExpiryOf(%q) err = %v, want ErrNoExpiry", tok, err)
		}
	}
}

func TestParseAccessRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.ParseAccess(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseAccessIssuerAudienceAndLeeway(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     priv.Public().(ed25519.PublicKey),
		Issuer:        "schoolguard",
		Audience:      "admin-api",
		Leeway:        30 * time.Second,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	access, _, err := m.CreateAccess("u", "admin")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.ParseAccess(access); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}

	sign := func(c AccessClaims) string {
		s, _ := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, c).SignedString(priv)
		return s
	}

	wrongIssuer := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "other",
		Audience:  gjwt.ClaimStrings{"admin-api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	if _, err := m.ParseAccess(sign(wrongIssuer)); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}

	wrongAudience := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "schoolguard",
		Audience:  gjwt.ClaimStrings{"other-api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	if _, err := m.ParseAccess(sign(wrongAudience)); err == nil {
		t.Fatal("expected wrong audience to fail")
	}

	withinLeeway := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "schoolguard",
		Audience:  gjwt.ClaimStrings{"admin-api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-15 * time.Second)),
		IssuedAt:  gjwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	if _, err := m.ParseAccess(sign(withinLeeway)); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}

	expired := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "schoolguard",
		Audience:  gjwt.ClaimStrings{"admin-api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now().Add(-3 * time.Minute)),
	}}
	if _, err := m.ParseAccess(sign(expired)); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseAccessUnknownKidFails(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, _ := newEdKeys(t)
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		PublicKey:     pub1,
		KeyID:         "k1",
		VerifyKeys: map[string][]byte{
			"k1": pub1,
		},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = "k2"
	token, err := tok.SignedString(priv1)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.ParseAccess(token); err == nil {
		t.Fatal("expected unknown kid failure")
	}

	tok2 := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	tok2.Header["kid"] = "k1"
	good, _ := tok2.SignedString(priv1)
	if _, err := m.ParseAccess(good); err != nil {
		t.Fatalf("expected known kid token to pass: %v", err)
	}

	m2, _ := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub2, VerifyKeys: map[string][]byte{"k2": pub2}})
	if _, err := m2.ParseAccess(good); err == nil {
		t.Fatal("expected parse failure with mismatched key set")
	}
}
