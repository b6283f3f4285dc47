package attachment

import (
	"path/filepath"
	"strings"
)

const defaultMIME = "application/octet-stream"

// mimeByExt covers the extensions the upload flow accepts. Inference is
// best effort: the extension is trusted, the payload is never sniffed.
var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MIMEFromName infers a content type from a file name's extension.
func MIMEFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if m, ok := mimeByExt[ext]; ok {
		return m
	}
	return defaultMIME
}
