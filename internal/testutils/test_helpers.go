package testutils

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// GetFreePort returns a free TCP port on the loopback interface.
func GetFreePort() (int, error) {
	lc := &net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to allocate port: %w", err)
	}
	defer listener.Close()

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0, errors.New("failed to convert to TCP address")
	}
	return tcpAddr.Port, nil
}
