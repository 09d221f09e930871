//go:build linux

package proc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statLine builds a /proc/<pid>/stat line with the given comm and counters.
func statLine(pid int, comm string, utime, stime uint64, rss int64) string {
	return fmt.Sprintf("%d (%s) S 1 %d %d 0 -1 4194560 1234 0 0 0 %d %d 0 0 20 0 4 0 987654 123456789 %d 18446744073709551615 1 1 0 0 0 0 0 4096 0 0 0 0 17 3 0 0 0 0 0\n",
		pid, comm, pid, pid, utime, stime, rss)
}

func TestClockTicksAndPageSize(t *testing.T) {
	t.Setenv("CLK_TCK", "")
	t.Setenv("PAGE_SIZE", "")
	assert.Greater(t, ClockTicks(), 0, "ClockTicks must be > 0")
	assert.Greater(t, PageSize(), 0, "PageSize must be > 0")

	t.Setenv("CLK_TCK", "250")
	t.Setenv("PAGE_SIZE", "16384")
	assert.Equal(t, 250, ClockTicks())
	assert.Equal(t, 16384, PageSize())
}

func TestExists(t *testing.T) {
	assert.True(t, Exists(os.Getpid()), "current PID should exist")
	assert.False(t, Exists(99999999), "very large PID should not exist")
}

func TestLookup(t *testing.T) {
	name, err := Lookup(os.Getpid())
	require.NoError(t, err)
	assert.NotEmpty(t, name)

	_, err = Lookup(-1)
	assert.ErrorIs(t, err, ErrBadPID)

	_, err = Lookup(99999999)
	assert.ErrorIs(t, err, ErrProcessGone)
}

func TestParseStat(t *testing.T) {
	t.Run("plain_name", func(t *testing.T) {
		st, err := ParseStat([]byte(statLine(42, "fluent-bit", 150, 30, 2048)))
		require.NoError(t, err)
		assert.Equal(t, "fluent-bit", st.Name)
		assert.Equal(t, uint64(150), st.UTime)
		assert.Equal(t, uint64(30), st.STime)
		assert.Equal(t, int64(2048), st.RSS)
	})

	t.Run("name_with_spaces_and_parens", func(t *testing.T) {
		st, err := ParseStat([]byte(statLine(7, "my (weird) proc", 1, 2, 3)))
		require.NoError(t, err)
		assert.Equal(t, "my (weird) proc", st.Name)
		assert.Equal(t, uint64(1), st.UTime)
		assert.Equal(t, uint64(2), st.STime)
		assert.Equal(t, int64(3), st.RSS)
	})

	t.Run("name_ending_with_paren_space", func(t *testing.T) {
		st, err := ParseStat([]byte(statLine(7, "a) b", 9, 8, 7)))
		require.NoError(t, err)
		assert.Equal(t, "a) b", st.Name)
		assert.Equal(t, uint64(9), st.UTime)
	})

	t.Run("no_parens", func(t *testing.T) {
		_, err := ParseStat([]byte("42 fluent-bit S 1 2 3"))
		assert.ErrorIs(t, err, ErrNoStat)
	})

	t.Run("short", func(t *testing.T) {
		_, err := ParseStat([]byte("42 (x) S 1 2 3"))
		assert.ErrorIs(t, err, ErrShortStat)
	})

	t.Run("garbage_counter", func(t *testing.T) {
		line := strings.Replace(statLine(42, "x", 0, 0, 0), " 0 0 0 20 ", " zz 0 0 20 ", 1)
		_, err := ParseStat([]byte(line))
		assert.ErrorIs(t, err, ErrNoStat)
	})
}

func TestReadStat_Self(t *testing.T) {
	st, err := ReadStat(os.Getpid())
	require.NoError(t, err)
	assert.NotEmpty(t, st.Name)
	assert.Greater(t, st.RSS, int64(0))

	time.Sleep(5 * time.Millisecond)
	st2, err := ReadStat(os.Getpid())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st2.UTime, st.UTime)
	assert.GreaterOrEqual(t, st2.STime, st.STime)
}

func TestReadStat_NoSuchPid(t *testing.T) {
	_, err := ReadStat(99999999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProcessGone))
}

func TestReadStat_Stubbed(t *testing.T) {
	t.Cleanup(func() { procReadFile = os.ReadFile })

	procReadFile = func(string) ([]byte, error) { return []byte("   \n"), nil }
	_, err := ReadStat(1)
	assert.ErrorIs(t, err, ErrNoStat)

	procReadFile = func(string) ([]byte, error) { return nil, fs.ErrPermission }
	_, err = ReadStat(1)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NotErrorIs(t, err, ErrProcessGone)

	// a read error for a pid that no longer exists means the process is gone
	procReadFile = func(string) ([]byte, error) { return nil, syscall.ESRCH }
	_, err = ReadStat(99999999)
	assert.ErrorIs(t, err, ErrProcessGone)
}
