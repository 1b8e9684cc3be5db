// Package edfserr defines the error taxonomy shared by every EdFS
// component. Internal packages return these sentinels (wrapped with
// fmt.Errorf's %w where context is useful); only the bridge boundary
// (internal/shell) converts them to POSIX errno values, via ToErrno.
package edfserr

import "errors"

// Errno is implemented by every sentinel in this package so a caller at
// the bridge boundary can recover the negative errno to hand back to the
// host filesystem transport.
type Errno interface {
	error
	Errno() int
}

type errno struct {
	msg string
	no  int
}

func (e *errno) Error() string { return e.msg }
func (e *errno) Errno() int    { return e.no }

var (
	ErrNoEnt    Errno = &errno{"no such file or directory", 2}
	ErrIO       Errno = &errno{"I/O error", 5}
	ErrNoMem    Errno = &errno{"out of memory", 12}
	ErrExist    Errno = &errno{"file exists", 17}
	ErrNotDir   Errno = &errno{"not a directory", 20}
	ErrIsDir    Errno = &errno{"is a directory", 21}
	ErrInval    Errno = &errno{"invalid argument", 22}
	ErrNoSpc    Errno = &errno{"no space left on device", 28}
	ErrFBig     Errno = &errno{"file too large", 27}
	ErrNotEmpty Errno = &errno{"directory not empty", 39}
	ErrNoSys    Errno = &errno{"function not implemented", 38}
)

// ToErrno walks err's chain and returns the negated POSIX errno of the
// first Errno sentinel found, or -EIO if err is non-nil but carries no
// known sentinel, or 0 if err is nil.
func ToErrno(err error) int {
	if err == nil {
		return 0
	}
	var e Errno
	if errors.As(err, &e) {
		return -e.Errno()
	}
	return -ErrIO.Errno()
}
