// Package netutils provides address helpers for the replicated state backends.
package netutils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const probeTimeout = 5 * time.Second

// ErrInvalidPeer is returned for peer specs that are not "id@host:port".
var ErrInvalidPeer = errors.New("invalid peer")

// Peer is a member of a replicated storage cluster.
type Peer struct {
	ID      string
	Address string
}

// ParsePeer parses "id@host:port".
func ParsePeer(spec string) (Peer, error) {
	id, addr, ok := strings.Cut(strings.TrimSpace(spec), "@")
	if !ok || id == "" {
		return Peer{}, fmt.Errorf("%w: %q: expected id@host:port", ErrInvalidPeer, spec)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return Peer{}, fmt.Errorf("%w: %q: %w", ErrInvalidPeer, spec, err)
	}
	return Peer{ID: id, Address: addr}, nil
}

// ParsePeers parses every spec, failing on the first invalid one.
func ParsePeers(specs []string) ([]Peer, error) {
	peers := make([]Peer, 0, len(specs))
	for _, spec := range specs {
		p, err := ParsePeer(spec)
		if err != nil {
			return nil, err
		}
		peers = append(peers, p)
	}
	return peers, nil
}

// OutboundIP returns the local address used to reach the public internet.
// No packet is sent; UDP dialing only selects a route.
func OutboundIP() (string, error) {
	dialer := &net.Dialer{Timeout: probeTimeout}
	conn, err := dialer.DialContext(context.Background(), "udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", errors.New("failed to get UDP address")
	}
	return localAddr.IP.String(), nil
}

// AdvertiseAddress returns advertise when set. Otherwise it derives a
// routable address from bind, replacing a wildcard host with OutboundIP.
func AdvertiseAddress(bind, advertise string) (string, error) {
	if advertise != "" {
		if _, _, err := net.SplitHostPort(advertise); err != nil {
			return "", fmt.Errorf("invalid advertise address: %w", err)
		}
		return advertise, nil
	}

	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "", fmt.Errorf("invalid bind address: %w", err)
	}
	if host != "" && host != "0.0.0.0" && host != "::" {
		return bind, nil
	}

	ip, err := OutboundIP()
	if err != nil {
		return "", fmt.Errorf("failed to determine outbound IP: %w", err)
	}
	return net.JoinHostPort(ip, port), nil
}
