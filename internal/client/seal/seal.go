// Package seal encrypts entry content on the client with an age passphrase
// so the server only ever stores ciphertext.
package seal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

const armorHeader = "-----BEGIN AGE ENCRYPTED FILE-----"

// DefaultWorkFactor is the scrypt work factor (log2 N) used for new content.
const DefaultWorkFactor = 18

var ErrWrongPassphrase = errors.New("wrong passphrase or corrupt ciphertext")

// Sealer seals and opens content with one passphrase.
type Sealer struct {
	passphrase string
	workFactor int
}

// New returns a Sealer. workFactor <= 0 selects DefaultWorkFactor.
func New(passphrase string, workFactor int) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	if workFactor <= 0 {
		workFactor = DefaultWorkFactor
	}
	return &Sealer{passphrase: passphrase, workFactor: workFactor}, nil
}

// IsSealed reports whether content looks like an armored age file.
func IsSealed(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), armorHeader)
}

// Seal encrypts plaintext and returns ASCII-armored ciphertext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(s.workFactor)

	var buf bytes.Buffer
	armored := armor.NewWriter(&buf)
	writer, err := age.Encrypt(armored, recipient)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(writer, plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return "", fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.String(), nil
}

// Open decrypts content produced by Seal. Content that is not sealed is
// returned unchanged.
func (s *Sealer) Open(content string) (string, error) {
	if !IsSealed(content) {
		return content, nil
	}

	identity, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt identity: %w", err)
	}
	identity.SetMaxWorkFactor(max(s.workFactor, DefaultWorkFactor))

	reader, err := age.Decrypt(armor.NewReader(strings.NewReader(strings.TrimSpace(content))), identity)
	if err != nil {
		return "", ErrWrongPassphrase
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return string(plaintext), nil
}
