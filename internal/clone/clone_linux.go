package clone

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// cloneRange reflinks length bytes from the start of in to out at dstOffset.
// length and dstOffset must be block-aligned.
//
// Returns errCloneUnsupported when the kernel or filesystem cannot clone
// between these two files, so the caller falls back to a byte copy. That
// covers old kernels (ENOSYS, ENOTTY), filesystems without reflink support
// (EOPNOTSUPP) and cross-filesystem pairs (EXDEV).
func cloneRange(out, in *os.File, dstOffset, length int64) error {
	err := unix.IoctlFileCloneRange(int(out.Fd()), &unix.FileCloneRange{
		Src_fd:      int64(in.Fd()),
		Src_offset:  0,
		Src_length:  uint64(length),
		Dest_offset: uint64(dstOffset),
	})
	if err == nil {
		return nil
	}

	var errno unix.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.ENOSYS, unix.ENOTTY, unix.EOPNOTSUPP, unix.EXDEV, unix.EINVAL:
			return errCloneUnsupported
		}
	}
	return err
}
