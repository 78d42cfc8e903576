//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package source

func available(fd uintptr) (int, error) {
	return 0, ErrUnsupported
}
