package identity

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

var reDeviceID = regexp.MustCompile(`^ACCT\d+$`)

// TestDeviceID_Known — зафиксированное значение для SHA-256("bob@example.com") = 5ff860bf...
func TestDeviceID_Known(t *testing.T) {
	t.Parallel()

	id, err := DeviceID(DefaultPrefix, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, "ACCT1610113215", id)
}

// TestDeviceID_Deterministic — одна и та же почта даёт один и тот же id.
func TestDeviceID_Deterministic(t *testing.T) {
	t.Parallel()

	for _, acc := range []string{"bob@example.com", "", "Bob@Example.com", "водитель@пример.рф"} {
		first, err1 := DeviceID(DefaultPrefix, acc)
		second, err2 := DeviceID(DefaultPrefix, acc)

		require.Equal(t, err1 == nil, err2 == nil, acc)
		require.Equal(t, first, second, acc)
		if err1 == nil {
			require.Regexp(t, reDeviceID, first)
		}
	}
}

// TestDeviceID_Overflow — SHA-256("user@example.com") начинается с b4c9a289
// (3033113225 > MaxInt32): ошибка, а не заворачивание в отрицательное число.
func TestDeviceID_Overflow(t *testing.T) {
	t.Parallel()

	id, err := DeviceID(DefaultPrefix, "user@example.com")
	require.ErrorIs(t, err, ErrParse)
	require.ErrorIs(t, err, strconv.ErrRange)
	require.Empty(t, id)

	// a@b.c -> d648b243, тоже за пределами int32.
	_, err = DeviceID(DefaultPrefix, "a@b.c")
	require.ErrorIs(t, err, ErrParse)
}

// TestDeviceID_Prefix — префикс берётся как есть.
func TestDeviceID_Prefix(t *testing.T) {
	t.Parallel()

	id, err := DeviceID("dev-", "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, "dev-1610113215", id)
}
