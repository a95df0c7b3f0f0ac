package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "plain")
	enc := filepath.Join(tmp, "enc")
	dec := filepath.Join(tmp, "dec")

	want := []byte("the ledger never forgets")
	if err := os.WriteFile(src, want, 0600); err != nil {
		t.Fatal(err)
	}

	if err := Encrypt(src, enc, "correct horse"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	encData, err := os.ReadFile(enc)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(encData, want) {
		t.Error("ciphertext contains plaintext")
	}

	if err := Decrypt(enc, dec, "correct horse"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	got, err := os.ReadFile(dec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("round trip = %q, want %q", got, want)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "plain")
	enc := filepath.Join(tmp, "enc")

	if err := os.WriteFile(src, []byte("secret"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := Encrypt(src, enc, "right"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := Decrypt(enc, filepath.Join(tmp, "dec"), "wrong"); err == nil {
		t.Error("decrypt with wrong passphrase must fail")
	}
}

func TestEncryptFreshSaltPerFile(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "plain")
	if err := os.WriteFile(src, []byte("same input"), 0600); err != nil {
		t.Fatal(err)
	}

	encA := filepath.Join(tmp, "a")
	encB := filepath.Join(tmp, "b")
	if err := Encrypt(src, encA, "pass"); err != nil {
		t.Fatal(err)
	}
	if err := Encrypt(src, encB, "pass"); err != nil {
		t.Fatal(err)
	}

	a, _ := os.ReadFile(encA)
	b, _ := os.ReadFile(encB)
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("salt reused across files")
	}
}
