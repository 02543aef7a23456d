package bank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveAndCredit(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit("LP1", "alice", 2000))
	require.NoError(t, l.Move("LP1", "alice", "chef", 60))
	assert.Equal(t, uint64(1940), l.BalanceOf("LP1", "alice"))
	assert.Equal(t, uint64(60), l.BalanceOf("LP1", "chef"))

	err := l.Move("LP1", "bob", "chef", 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, l.Credit("LP1", "whale", math.MaxUint64))
	assert.ErrorIs(t, l.Credit("LP1", "whale", 1), ErrBalanceOverflow)
	assert.ErrorIs(t, l.Move("LP1", "alice", "whale", 1), ErrBalanceOverflow)
	assert.Equal(t, []string{"LP1"}, l.Assets())
}

func TestMoveToSelfChecksBalance(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit("LP1", "chef", 100))

	err := l.Move("LP1", "chef", "chef", 500)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.ErrorIs(t, l.Move("LP1", "nobody", "nobody", 1), ErrInsufficientBalance)

	require.NoError(t, l.Move("LP1", "chef", "chef", 100))
	assert.Equal(t, uint64(100), l.BalanceOf("LP1", "chef"))
}

func TestSnapshotRevert(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit("GAJ", "dev", 10))

	snap := l.Snapshot()
	require.NoError(t, l.Credit("GAJ", "dev", 5))
	require.NoError(t, l.Credit("GAJ", "chef", 50))
	require.NoError(t, l.Move("GAJ", "chef", "alice", 20))
	l.RevertToSnapshot(snap)

	assert.Equal(t, uint64(10), l.BalanceOf("GAJ", "dev"))
	assert.Equal(t, uint64(0), l.BalanceOf("GAJ", "chef"))
	_, found := l.Balances()["GAJ"]["alice"]
	assert.False(t, found, "account created after snapshot should be removed")
}

func TestSnapshotRelease(t *testing.T) {
	l := New()
	snap := l.Snapshot()
	require.NoError(t, l.Credit("GAJ", "dev", 5))
	l.Release(snap)
	assert.Equal(t, uint64(5), l.BalanceOf("GAJ", "dev"))
	assert.Empty(t, l.journal)

	assert.Panics(t, func() { l.RevertToSnapshot(snap) })
}

func TestNestedSnapshots(t *testing.T) {
	l := New()
	outer := l.Snapshot()
	require.NoError(t, l.Credit("A", "x", 1))
	inner := l.Snapshot()
	require.NoError(t, l.Credit("A", "x", 1))
	l.RevertToSnapshot(inner)
	assert.Equal(t, uint64(1), l.BalanceOf("A", "x"))
	l.RevertToSnapshot(outer)
	assert.Equal(t, uint64(0), l.BalanceOf("A", "x"))
}

func TestRestoreCopies(t *testing.T) {
	src := map[string]map[string]uint64{"LP1": {"alice": 5}}
	l := Restore(src)
	src["LP1"]["alice"] = 99
	assert.Equal(t, uint64(5), l.BalanceOf("LP1", "alice"))
}

func TestAdapters(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit("LP1", "alice", 100))
	custody := NewCustody(l, "chef")
	require.NoError(t, custody.TransferIn("LP1", "alice", 40))
	require.NoError(t, custody.TransferOut("LP1", "fee", 1))
	assert.Equal(t, uint64(39), l.BalanceOf("LP1", "chef"))
	assert.Equal(t, uint64(1), l.BalanceOf("LP1", "fee"))

	issuer := NewIssuer(l, "GAJ")
	require.NoError(t, issuer.Mint("chef", 333))
	require.NoError(t, issuer.Mint("dev", 0))
	require.NoError(t, issuer.Transfer("chef", "alice", 333))
	assert.Equal(t, uint64(333), l.BalanceOf("GAJ", "alice"))
	assert.Equal(t, uint64(333), issuer.Balance("alice"))
	assert.Zero(t, issuer.Balance("chef"))
	assert.Equal(t, "GAJ", issuer.Asset())
}
