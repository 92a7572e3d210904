package ndr

import (
	"strings"

	"github.com/pkg/errors"
)

// NormalizeNHSNumber strips spaces and hyphens from n and checks it is a
// 10 digit NHS number with a valid modulus 11 check digit.
func NormalizeNHSNumber(n string) (string, error) {
	n = strings.NewReplacer(" ", "", "-", "").Replace(n)

	if len(n) != 10 {
		return "", errors.Wrapf(ErrInvalidNHSNumber, "%q must have 10 digits", n)
	}

	sum := 0
	for i := 0; i < 10; i++ {
		if n[i] < '0' || n[i] > '9' {
			return "", errors.Wrapf(ErrInvalidNHSNumber, "%q must only contain digits", n)
		}
		if i < 9 {
			sum += int(n[i]-'0') * (10 - i)
		}
	}

	check := 11 - sum%11
	if check == 11 {
		check = 0
	}
	if check == 10 || check != int(n[9]-'0') {
		return "", errors.Wrapf(ErrInvalidNHSNumber, "%q has an invalid check digit", n)
	}

	return n, nil
}
