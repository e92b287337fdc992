package filesystem

// direntNameMax is the longest name a struct dirent can carry on Darwin with
// 64-bit inodes (d_name is 1024 bytes including the terminator).
const direntNameMax = 1023
