package filestorage

// FileStorage defines the interface for archived file operations
type FileStorage interface {
	// Save writes data under subPath with a generated name ending in ext and
	// returns the relative path it was stored at
	Save(data []byte, subPath, ext string) (string, error)

	// Read returns the content stored at a path returned by Save
	Read(relPath string) ([]byte, error)

	// Delete removes a stored file; a missing file is not an error
	Delete(relPath string) error

	// FullPath returns the filesystem path for a stored relative path
	FullPath(relPath string) (string, error)
}
