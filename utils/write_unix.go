//go:build unix

package utils

import "golang.org/x/sys/unix"

//go:nosplit
func syscallWrite(fd int, b []byte) (int, error) {
	return unix.Write(fd, b)
}
