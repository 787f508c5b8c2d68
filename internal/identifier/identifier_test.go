package identifier_test

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/payportal/payportal/internal/identifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionIDPattern = regexp.MustCompile(`^TXN-[0-9A-Z]+-[0-9A-Z]{5}-\d{2}$`)

func TestNewTransactionIDFormat(t *testing.T) {
	id, err := identifier.NewTransactionID("TXN", time.Now())
	require.NoError(t, err)
	assert.Regexp(t, transactionIDPattern, id)
}

func TestNewTransactionIDChecksum(t *testing.T) {
	id, err := identifier.NewTransactionID("TXN", time.Now())
	require.NoError(t, err)

	parts := strings.Split(id, "-")
	require.Len(t, parts, 4)

	// The checksum is computed over the lowercase timestamp+random
	// concatenation, then rendered as two digits.
	body := strings.ToLower(parts[1] + parts[2])
	want := identifier.Checksum(body)
	assert.Equal(t, len(parts[3]), 2)
	assert.Equal(t, want, atoi(t, parts[3]))
}

func TestNewTransactionIDUsesTimestamp(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	id, err := identifier.NewTransactionID("TXN", at)
	require.NoError(t, err)

	parts := strings.Split(id, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "LOYW3V28", parts[1]) // 1700000000000 in base36, uppercased
}

func TestNewSessionID(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	assert.Equal(t, "SES-LOYW3V28", identifier.NewSessionID(at))
}

func TestNewCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := identifier.NewCode(4)
		require.NoError(t, err)
		assert.Regexp(t, `^\d{4}$`, code)
	}
}

func TestNewCodeLengths(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		code, err := identifier.NewCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
	}
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	n := 0
	for _, r := range s {
		require.True(t, r >= '0' && r <= '9')
		n = n*10 + int(r-'0')
	}
	return n
}
