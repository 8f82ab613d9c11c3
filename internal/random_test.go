package internal

import "testing"

func TestSessionIDRoundTrip(t *testing.T) {
	sid, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}

	parsed, err := ParseSessionID(sid.String())
	if err != nil {
		t.Fatalf("ParseSessionID: %v", err)
	}
	if parsed != sid {
		t.Fatal("round trip changed the session id")
	}
}

func TestParseSessionIDRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "!!!", "c2hvcnQ"} {
		if _, err := ParseSessionID(in); err == nil {
			t.Fatalf("ParseSessionID(%q) accepted", in)
		}
	}
}

func FuzzParseSessionID(f *testing.F) {
	f.Add("")
	f.Add("AAAAAAAAAAAAAAAAAAAAAA")
	f.Add("not-base64!")
	f.Fuzz(func(t *testing.T, in string) {
		sid, err := ParseSessionID(in)
		if err != nil {
			return
		}
		again, err := ParseSessionID(sid.String())
		if err != nil || again != sid {
			t.Fatalf("re-parse of %q failed: %v", in, err)
		}
	})
}

func TestNewNonceUnique(t *testing.T) {
	a, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	b, _ := NewNonce()
	if a == b || a == "" {
		t.Fatalf("nonces not unique: %q %q", a, b)
	}
}
