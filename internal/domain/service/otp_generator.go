package service

// OTPGenerator produces one-time numeric codes.
type OTPGenerator interface {
	// Generate returns a fresh code of entity.OTPLength ASCII digits.
	Generate() (string, error)
}
