package netutils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	netutils "github.com/demonshower/BFTBrain/pkg/utils"
)

func TestParsePeer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		want    netutils.Peer
		wantErr bool
	}{
		{spec: "agent-1@10.0.0.1:7000", want: netutils.Peer{ID: "agent-1", Address: "10.0.0.1:7000"}},
		{spec: " agent-2@[::1]:7000 ", want: netutils.Peer{ID: "agent-2", Address: "[::1]:7000"}},
		{spec: "10.0.0.1:7000", wantErr: true},
		{spec: "@10.0.0.1:7000", wantErr: true},
		{spec: "agent@nohost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			got, err := netutils.ParsePeer(tt.spec)
			if tt.wantErr {
				require.ErrorIs(t, err, netutils.ErrInvalidPeer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePeers(t *testing.T) {
	t.Parallel()

	peers, err := netutils.ParsePeers([]string{"a@127.0.0.1:1", "b@127.0.0.1:2"})
	require.NoError(t, err)
	assert.Len(t, peers, 2)

	_, err = netutils.ParsePeers([]string{"a@127.0.0.1:1", "broken"})
	require.ErrorIs(t, err, netutils.ErrInvalidPeer)
}

func TestAdvertiseAddress(t *testing.T) {
	t.Parallel()

	addr, err := netutils.AdvertiseAddress("0.0.0.0:7000", "agent.example:7000")
	require.NoError(t, err)
	assert.Equal(t, "agent.example:7000", addr)

	addr, err = netutils.AdvertiseAddress("192.168.1.100:7000", "")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.100:7000", addr)

	_, err = netutils.AdvertiseAddress("invalid", "")
	require.Error(t, err)

	_, err = netutils.AdvertiseAddress("127.0.0.1:7000", "no-port")
	require.Error(t, err)
}
