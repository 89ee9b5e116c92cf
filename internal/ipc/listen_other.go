//go:build !unix

package ipc

import (
	"errors"
	"net"
)

func listenUnix(string, int) (net.Listener, error) {
	return nil, errors.New("unix domain sockets are not supported on this platform")
}
