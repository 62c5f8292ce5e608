package medium

import "os"

// FileReceiptSource reads the receipt blob from the path where the platform
// materializes it. A missing file is not an error: the medium writes the
// blob asynchronously after a purchase, so callers poll.
type FileReceiptSource struct {
	Path string
}

func NewFileReceiptSource(path string) *FileReceiptSource {
	return &FileReceiptSource{Path: path}
}

func (s *FileReceiptSource) Read() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
