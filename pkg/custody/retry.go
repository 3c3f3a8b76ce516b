package custody

import "errors"

// RetryStorage runs fn and, if it fails with a *StorageError, runs it
// exactly once more. Validation errors (duplicate id, not found, dangling
// parent) pass through untouched — only persistence I/O gets the second
// attempt. If the retry also fails, that failure surfaces to the caller;
// a registration or custody event is never silently dropped.
func RetryStorage(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return fn()
	}
	return err
}
