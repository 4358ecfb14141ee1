package history

import "errors"

var (
	// ErrStorageUnavailable indicates the store could not be opened: the
	// state directory is not writable, another process holds the lock, or
	// sqlite refused the connection.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrWriteFailed indicates a put hit an underlying I/O error.
	ErrWriteFailed = errors.New("write failed")
	// ErrDeleteFailed indicates a delete hit an underlying I/O error.
	ErrDeleteFailed = errors.New("delete failed")
	// ErrHistoryLoadFailed indicates an owner's records could not be read.
	ErrHistoryLoadFailed = errors.New("history load failed")
)
