package auth

import (
	"crypto/rand"
	"math/big"
	"unicode"

	"github.com/buensabor/buensabor-web/internal/shared"
)

// MinPasswordLength is the shortest password the backend accepts.
const MinPasswordLength = 6

// ValidatePassword checks length, letter+digit mix and confirmation. It never touches the network.
func ValidatePassword(password, confirm string) error {
	if len([]rune(password)) < MinPasswordLength {
		return shared.NewValidationError("password", "La contraseña debe tener al menos 6 caracteres.")
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return shared.NewValidationError("password", "La contraseña debe incluir letras y números.")
	}
	if password != confirm {
		return shared.NewValidationError("confirm_password", "Las contraseñas no coinciden.")
	}
	return nil
}

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratePassword returns a random initial password that satisfies ValidatePassword.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength+2 {
		length = MinPasswordLength + 2
	}
	max := big.NewInt(int64(len(passwordAlphabet)))
	for {
		buf := make([]byte, length)
		for i := range buf {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			buf[i] = passwordAlphabet[n.Int64()]
		}
		candidate := string(buf)
		if ValidatePassword(candidate, candidate) == nil {
			return candidate, nil
		}
	}
}
