package security

import "testing"

func TestTokenFingerprint_Consistent(t *testing.T) {
	h1 := TokenFingerprint("session-token-123")
	h2 := TokenFingerprint("session-token-123")
	if h1 != h2 {
		t.Errorf("TokenFingerprint not consistent: %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("fingerprint length = %d, want 64 (SHA-256 hex)", len(h1))
	}
	if TokenFingerprint("a") == TokenFingerprint("b") {
		t.Error("different tokens produced the same fingerprint")
	}
}

func TestFingerprintEqual(t *testing.T) {
	fp := TokenFingerprint("tok")
	if !FingerprintEqual("tok", fp) {
		t.Error("FingerprintEqual should match its own fingerprint")
	}
	if FingerprintEqual("other", fp) {
		t.Error("FingerprintEqual should reject a different token")
	}
	if FingerprintEqual("tok", "") {
		t.Error("FingerprintEqual should reject an empty fingerprint")
	}
}
