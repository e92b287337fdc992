package router

import "golang.org/x/sys/unix"

// creates reports whether an open may create a file. Those always go to the
// real OS, the embedded tree is read-only.
func creates(flags int) bool {
	return flags&unix.O_CREAT != 0
}

// Darwin has no AT_EMPTY_PATH.
const emptyPathFlag = 0
