package crypto

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	master := []byte("0123456789abcdef0123456789abcdef")
	key, err := DeriveKey(master, []byte("keyring-path"), "keyrotate-keyring-v1")
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}

	plaintext := []byte(`{"version":1,"keys":{}}`)
	ciphertext, err := Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(ciphertext) == string(plaintext) {
		t.Fatalf("ciphertext must not equal plaintext")
	}

	decrypted, err := Decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Fatalf("round trip mismatch: got %q", decrypted)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	master := []byte("0123456789abcdef0123456789abcdef")
	key1, _ := DeriveKey(master, []byte("a"), "info")
	key2, _ := DeriveKey(master, []byte("b"), "info")

	ciphertext, err := Encrypt(key1, []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(key2, ciphertext); err == nil {
		t.Fatalf("expected decryption failure with wrong key")
	}
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	ZeroBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, v)
		}
	}
}
