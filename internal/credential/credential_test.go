package credential

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("secret1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "secret1" || hash == "" {
		t.Fatalf("Hash returned an unusable value: %q", hash)
	}

	if !Verify("secret1", hash) {
		t.Error("Verify rejected the correct secret")
	}
	if Verify("secret2", hash) {
		t.Error("Verify accepted a wrong secret")
	}
}

func TestHashIsSalted(t *testing.T) {
	h1, _ := Hash("same-secret")
	h2, _ := Hash("same-secret")
	if h1 == h2 {
		t.Error("Expected two hashes of the same secret to differ")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	if Verify("anything", "not-a-bcrypt-hash") {
		t.Error("Verify accepted a malformed hash")
	}
	if Verify("anything", "") {
		t.Error("Verify accepted an empty hash")
	}
}
