package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"chatty/internal/domain/entity"
	"chatty/internal/domain/service"

	"github.com/pkg/errors"
)

// otpSpan is the number of distinct codes: 100000..999999.
var otpSpan = big.NewInt(900000)

type randomOTPGenerator struct{}

// NewOTPGenerator returns a generator backed by crypto/rand.
func NewOTPGenerator() service.OTPGenerator {
	return &randomOTPGenerator{}
}

// Generate returns a six-digit code without a leading zero.
func (g *randomOTPGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", errors.Wrap(err, "read random otp")
	}

	return fmt.Sprintf("%0*d", entity.OTPLength, n.Int64()+100000), nil
}
