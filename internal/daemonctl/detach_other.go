//go:build !unix

package daemonctl

import "syscall"

func detachAttr() *syscall.SysProcAttr {
	return nil
}
