package duplex

import "runtime"

// shmSupported gates the segment-backed tests to platforms with the
// /dev/shm mapping model.
func shmSupported() bool { return runtime.GOOS == "linux" }
