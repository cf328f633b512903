package port

// ArchiveWalker finds review archive files below a root directory.
type ArchiveWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}
