package port

import "os"

// TemplateStorage defines generated workbook storage
type TemplateStorage interface {
	FileName(parts ...string) string
	Save(name string, content []byte) (string, error)
	Open(fullPath string) (*os.File, error)
}
