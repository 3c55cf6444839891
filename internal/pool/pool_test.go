// SPDX-License-Identifier: GPL-3.0-or-later

package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	closed bool
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestPoolGetPutRoundtrip(t *testing.T) {
	p := New[*fakeConn](4, time.Minute)
	_, ok := p.Get("a")
	require.False(t, ok)

	c := &fakeConn{}
	p.Put("a", c)
	require.Equal(t, 1, p.Len("a"))

	got, ok := p.Get("a")
	require.True(t, ok)
	require.Same(t, c, got)
	require.Equal(t, 0, p.Len("a"))
}

func TestPoolDropsOverCapacity(t *testing.T) {
	p := New[*fakeConn](1, time.Minute)
	first := &fakeConn{}
	second := &fakeConn{}
	p.Put("a", first)
	p.Put("a", second)

	require.Equal(t, 1, p.Len("a"))
	require.True(t, second.closed, "connection over the per-key cap must be closed")
}

func TestPoolSweepsExpiredEntries(t *testing.T) {
	p := New[*fakeConn](4, time.Millisecond)
	c := &fakeConn{}
	p.Put("a", c)
	time.Sleep(5 * time.Millisecond)

	_, ok := p.Get("a")
	require.False(t, ok, "expired entries must not be returned")
	require.True(t, c.closed, "expired entries must be closed on sweep")
}

func TestPoolKeysAreIndependent(t *testing.T) {
	p := New[*fakeConn](4, time.Minute)
	p.Put("a", &fakeConn{})
	p.Put("b", &fakeConn{})
	require.Equal(t, 1, p.Len("a"))
	require.Equal(t, 1, p.Len("b"))
}
