package feed

import (
	"fmt"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
)

// DecryptToken decrypts the fernet-encrypted feed bearer token with the given
// base64 key. Tokens never expire.
func DecryptToken(key, token string) (string, error) {
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: invalid key: %w", apperrors.ErrFailedToDecryptToken, err)
	}

	msg := fernet.VerifyAndDecrypt([]byte(token), -1, []*fernet.Key{k})
	if msg == nil {
		return "", apperrors.ErrFailedToDecryptToken
	}
	return string(msg), nil
}
