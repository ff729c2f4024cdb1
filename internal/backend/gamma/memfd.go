package gamma

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sealedRampBuffer creates an anonymous, sealed shared-memory region sized
// to hold table, suitable for handing to the compositor over
// zwlr_gamma_control_v1.set_gamma: sealed so the compositor can trust the
// contents won't change out from under it after the fd is sent.
func sealedRampBuffer(table []byte) (fd int, err error) {
	fd, err = unix.MemfdCreate("sunsetrd-gamma-ramp", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return -1, fmt.Errorf("memfd_create: %w", err)
	}

	if err := unix.Ftruncate(fd, int64(len(table))); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("ftruncate: %w", err)
	}

	data, err := unix.Mmap(fd, 0, len(table), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("mmap: %w", err)
	}
	copy(data, table)
	if err := unix.Munmap(data); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("munmap: %w", err)
	}

	seals := unix.F_SEAL_SHRINK | unix.F_SEAL_GROW | unix.F_SEAL_WRITE | unix.F_SEAL_SEAL
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, seals); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("add seals: %w", err)
	}

	return fd, nil
}
