package filesystem

// direntNameMax is the longest name a struct dirent can carry on Linux
// (d_name is 256 bytes including the terminator).
const direntNameMax = 255
