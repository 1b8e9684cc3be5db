package superblock

// NDirect is the number of direct block pointers carried in every disk
// inode. Matches the size class used by the small educational
// filesystems in the grounding corpus (e.g. the 12-pointer direct array
// in tranvaj-ZOS2023_SP_GO's PseudoInode).
const NDirect = 12

// FilenameMax is the maximum length, including the terminating null
// byte, of a directory entry's filename.
const FilenameMax = 60

// InvalidBlock is the sentinel block pointer value meaning "unallocated".
const InvalidBlock uint16 = 0xFFFF

// InvalidInumber is the sentinel inumber meaning "no such inode".
const InvalidInumber uint16 = 0

// RootInumber is the well-known inumber of the root directory.
const RootInumber uint16 = 1

// BlockPtrSize is the on-disk width of one block pointer.
const BlockPtrSize = 2

// DirEntrySize is the on-disk width of one directory entry: a
// null-terminated filename followed by a uint16 inumber.
const DirEntrySize = FilenameMax + 2
