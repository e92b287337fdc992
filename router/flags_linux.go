package router

import "golang.org/x/sys/unix"

// creates reports whether an open may create a file. Those always go to the
// real OS, the embedded tree is read-only. O_TMPFILE shares its O_DIRECTORY
// bit with plain directory opens so the whole mask must match.
func creates(flags int) bool {
	return flags&unix.O_CREAT != 0 || flags&unix.O_TMPFILE == unix.O_TMPFILE
}

const emptyPathFlag = unix.AT_EMPTY_PATH
