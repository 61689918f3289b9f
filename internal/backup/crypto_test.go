package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(a) != saltSize {
		t.Errorf("salt length = %d, want %d", len(a), saltSize)
	}

	b, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("consecutive salts must differ")
	}
}

func TestDeriveKey(t *testing.T) {
	salt := []byte("0123456789abcdef")

	k1 := DeriveKey("ledger-backup-passphrase", salt)
	k2 := DeriveKey("ledger-backup-passphrase", salt)
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt must derive the same key")
	}
	if len(k1) != keySize {
		t.Errorf("key length = %d, want %d", len(k1), keySize)
	}

	k3 := DeriveKey("other-passphrase", salt)
	if bytes.Equal(k1, k3) {
		t.Error("different passphrases must derive different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "snapshot.db")
	encPath := filepath.Join(dir, "snapshot.db.enc")
	decPath := filepath.Join(dir, "restored.db")

	original := []byte("point ledger snapshot bytes")
	if err := os.WriteFile(srcPath, original, 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if err := EncryptFile(srcPath, encPath, "passphrase", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	encrypted, err := os.ReadFile(encPath)
	if err != nil {
		t.Fatalf("read encrypted: %v", err)
	}
	if bytes.Contains(encrypted, original) {
		t.Error("ciphertext must not contain the plaintext")
	}
	if !bytes.Equal(encrypted[:saltSize], salt) {
		t.Error("encrypted file must start with the salt")
	}

	if err := DecryptFile(encPath, decPath, "passphrase"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	restored, err := os.ReadFile(decPath)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if !bytes.Equal(restored, original) {
		t.Error("restored bytes differ from original")
	}
}

func TestEncryptDecryptEmptyFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "empty.db")
	encPath := filepath.Join(dir, "empty.db.enc")
	decPath := filepath.Join(dir, "empty-restored.db")

	if err := os.WriteFile(srcPath, nil, 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	salt, _ := GenerateSalt()
	if err := EncryptFile(srcPath, encPath, "passphrase", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := DecryptFile(encPath, decPath, "passphrase"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	restored, _ := os.ReadFile(decPath)
	if len(restored) != 0 {
		t.Errorf("expected empty restore, got %d bytes", len(restored))
	}
}

func TestDecryptFailures(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "snapshot.db")
	encPath := filepath.Join(dir, "snapshot.db.enc")
	if err := os.WriteFile(srcPath, []byte("ledger bytes"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	salt, _ := GenerateSalt()
	if err := EncryptFile(srcPath, encPath, "passphrase", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	t.Run("wrong passphrase", func(t *testing.T) {
		if err := DecryptFile(encPath, filepath.Join(dir, "out1.db"), "wrong"); err == nil {
			t.Fatal("expected error with wrong passphrase")
		}
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		data, _ := os.ReadFile(encPath)
		tampered := filepath.Join(dir, "tampered.db.enc")
		data[len(data)-1] ^= 0xFF
		if err := os.WriteFile(tampered, data, 0o600); err != nil {
			t.Fatalf("write tampered: %v", err)
		}
		if err := DecryptFile(tampered, filepath.Join(dir, "out2.db"), "passphrase"); err == nil {
			t.Fatal("expected error with tampered ciphertext")
		}
	})

	t.Run("truncated file", func(t *testing.T) {
		short := filepath.Join(dir, "short.db.enc")
		if err := os.WriteFile(short, []byte("short"), 0o600); err != nil {
			t.Fatalf("write short: %v", err)
		}
		if err := DecryptFile(short, filepath.Join(dir, "out3.db"), "passphrase"); err == nil {
			t.Fatal("expected error with truncated file")
		}
	})
}
