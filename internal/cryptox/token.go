package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/blogkeeper/internal/common"
)

// TokenGenerator issues opaque session tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator reads common.SessionTokenBytes bytes from crypto/rand
// and hex encodes them: 256 bits of entropy, 64 characters.
type RandomTokenGenerator struct{}

func (RandomTokenGenerator) Generate() (string, error) {
	token, err := common.MakeRandHexString(common.SessionTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return token, nil
}
