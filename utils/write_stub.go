//go:build !unix

package utils

import "os"

func syscallWrite(fd int, b []byte) (int, error) {
	if fd == 2 {
		return os.Stderr.Write(b)
	}
	return os.Stdout.Write(b)
}
