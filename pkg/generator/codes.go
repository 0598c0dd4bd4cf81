package generator

import (
	"crypto/rand"
	"math/big"
)

const (
	base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits = "0123456789"

	ReservationCodeLength = 6
	LoginCodeLength       = 6
)

// ReservationCode returns a short upper-case base-36 code for manual lookup at
// the door. Codes are not checked for uniqueness here.
func ReservationCode() (string, error) {
	return randomString(base36, ReservationCodeLength)
}

// LoginCode returns a numeric one-time code for email sign-in.
func LoginCode() (string, error) {
	return randomString(digits, LoginCodeLength)
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
