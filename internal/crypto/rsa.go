// Package crypto holds the per-run RSA keypair used to protect sensitive
// stdin text on its way to the daemon.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// KeyPair decrypts password text that crossed the network boundary. The
// client encrypts against the daemon's public key; interrupts bypass
// decryption entirely.
type KeyPair struct {
	priv *rsa.PrivateKey
}

// GenerateKeyPair creates a fresh 2048-bit RSA keypair for this daemon run.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &KeyPair{priv: priv}, nil
}

// PublicKeyPEM returns the PEM-encoded public key served to clients.
func (k *KeyPair) PublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&k.priv.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// Encrypt encrypts plaintext against the public key, base64-encoded. Used
// by clients and tests; the daemon itself only decrypts.
func (k *KeyPair) Encrypt(plaintext string) (string, error) {
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, &k.priv.PublicKey, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (k *KeyPair) Decrypt(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, k.priv, ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}
