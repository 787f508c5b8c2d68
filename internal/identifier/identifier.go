package identifier

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewTransactionID builds a human-decodable transaction identifier of the
// form PREFIX-<base36 ms timestamp>-<5 base36 random>-<2-digit checksum>,
// uppercased. Uniqueness is probabilistic; a collision overwrites
// (last writer wins), which is acceptable at this scale.
func NewTransactionID(prefix string, now time.Time) (string, error) {
	ts := strconv.FormatInt(now.UnixMilli(), 36)

	random, err := randomBase36(5)
	if err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}

	// The checksum is computed over the lowercase concatenation; only the
	// rendered identifier is uppercased.
	sum := Checksum(ts + random)

	return fmt.Sprintf("%s-%s-%s-%02d",
		prefix, strings.ToUpper(ts), strings.ToUpper(random), sum), nil
}

// Checksum sums the byte values of s and reduces mod 100.
func Checksum(s string) int {
	total := 0
	for _, b := range []byte(s) {
		total += int(b)
	}
	return total % 100
}

// NewSessionID builds the correlation token issued alongside a
// transaction id: SES-<base36 ms timestamp, uppercase>.
func NewSessionID(now time.Time) string {
	return "SES-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}

// NewCode generates a fixed-width numeric one-time code. Each digit is
// drawn independently, so leading zeros are possible and the code is
// always exactly length digits wide.
func NewCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += num.String()
	}
	return code, nil
}

func randomBase36(length int) (string, error) {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36Alphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36Alphabet[idx.Int64()])
	}
	return sb.String(), nil
}
