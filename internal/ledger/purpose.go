package ledger

import "fmt"

// Purpose is the flow a token was minted for. It is stored in the
// tokenable_type column and decides which flow may consume the token.
type Purpose string

const (
	PurposeForgotPassword Purpose = "forgot_password"
	PurposeChangeEmail    Purpose = "change_email"
)

func (p Purpose) String() string { return string(p) }

func (p Purpose) Valid() bool {
	switch p {
	case PurposeForgotPassword, PurposeChangeEmail:
		return true
	}
	return false
}

func ParsePurpose(s string) (Purpose, error) {
	p := Purpose(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPurpose, s)
	}
	return p, nil
}
