// Package crypto implements the AES-256-GCM codec used to protect the
// session file at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/awnumar/memguard"
)

const (
	// KeySize is the AES-256 key length in bytes. Operators supply the key
	// as KeySize*2 hex characters.
	KeySize = 32

	ivSize  = 16
	tagSize = 16
)

var (
	// ErrUnavailable is returned by Encrypt/Decrypt when no valid key was
	// configured. Callers are expected to treat this as a capability flag
	// and fall back to plaintext persistence.
	ErrUnavailable = errors.New("encryption key is not available")

	// ErrDecrypt covers every decryption failure: malformed blobs, tampered
	// ciphertext and wrong-key data all map to this one error so the format
	// check cannot be used as an oracle against the authentication tag.
	ErrDecrypt = errors.New("decryption failed: corrupt or wrong-key data")
)

// Codec encrypts and decrypts opaque blobs with a fixed AES-256 key.
// The key is parsed once and held in a memguard Enclave for the process
// lifetime. A Codec built from an invalid secret is still usable as a
// value; it just reports Available() == false.
type Codec struct {
	key *memguard.Enclave
}

// NewCodec parses secretHex, which must be exactly KeySize*2 hex characters
// to enable encryption. Any other input (including empty) yields an
// unavailable codec rather than an error.
func NewCodec(secretHex string) *Codec {
	raw, err := hex.DecodeString(strings.TrimSpace(secretHex))
	if err != nil || len(raw) != KeySize {
		return &Codec{}
	}
	return &Codec{key: memguard.NewEnclave(raw)}
}

// Available reports whether a valid key was configured.
func (c *Codec) Available() bool {
	return c != nil && c.key != nil
}

// Encrypt seals plaintext with a fresh random 16-byte IV and returns the
// blob as "iv:tag:ciphertext", each field lowercase hex.
func (c *Codec) Encrypt(plaintext []byte) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	gcm, release, err := c.openGCM()
	if err != nil {
		return "", err
	}
	defer release()

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generating IV: %w", err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext)), nil
}

// Decrypt reverses Encrypt. Every failure mode returns ErrDecrypt.
func (c *Codec) Decrypt(blob string) ([]byte, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		return nil, ErrDecrypt
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return nil, ErrDecrypt
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return nil, ErrDecrypt
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, ErrDecrypt
	}

	gcm, release, err := c.openGCM()
	if err != nil {
		return nil, err
	}
	defer release()

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// openGCM unseals the key enclave and builds a GCM instance with the
// 16-byte nonce size the blob format uses. The returned release func wipes
// the unsealed key buffer.
func (c *Codec) openGCM() (cipher.AEAD, func(), error) {
	buf, err := c.key.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening key enclave: %w", err)
	}
	block, err := aes.NewCipher(buf.Bytes())
	if err != nil {
		buf.Destroy()
		return nil, nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		buf.Destroy()
		return nil, nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, buf.Destroy, nil
}

// NewSecretHex generates a fresh random key in the hex form NewCodec
// accepts. Used by the keygen command.
func NewSecretHex() (string, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
