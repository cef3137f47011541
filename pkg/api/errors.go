package api

// ErrorDomain is the errdetails.ErrorInfo domain of DirService errors.
const ErrorDomain = "devfs"

// ErrorInfo reasons attached to DirService error statuses. Clients use them
// to recover the exact error kind where several kinds share a gRPC code.
const (
	ReasonInvalidHandle         = "INVALID_HANDLE"
	ReasonStaleHandle           = "STALE_HANDLE"
	ReasonEntryVanished         = "ENTRY_VANISHED"
	ReasonHandleTableCorruption = "HANDLE_TABLE_CORRUPTION"
	ReasonNotExist              = "NOT_EXIST"
	ReasonInvalidName           = "INVALID_NAME"
	ReasonNameTooLong           = "NAME_TOO_LONG"
	ReasonDuplicateInode        = "DUPLICATE_INODE"
	ReasonDuplicateName         = "DUPLICATE_NAME"
)
