// Package upload decodes multipart form bodies and stores uploaded images.
package upload

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

// ErrNoBoundary is returned when the boundary is neither in the
// Content-Type header nor recoverable from the body.
var ErrNoBoundary = errors.New("multipart boundary not found in Content-Type and could not be guessed from body")

// File is one uploaded file part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// ParseMultipart splits a raw multipart body into text fields and file
// parts. The boundary is taken from contentType when present; otherwise it
// is sniffed from the first body line, which tolerates clients that send
// multipart/form-data without the boundary parameter.
func ParseMultipart(body []byte, contentType string) (map[string]string, []File, error) {
	boundary := headerBoundary(contentType)
	if boundary == "" {
		boundary = sniffBoundary(body)
	}
	if boundary == "" {
		return nil, nil, ErrNoBoundary
	}

	fields := map[string]string{}
	var files []File

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, nil, err
		}
		if part.FileName() != "" {
			ct := part.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			files = append(files, File{
				Field:       part.FormName(),
				Filename:    part.FileName(),
				ContentType: ct,
				Data:        data,
			})
		} else {
			fields[part.FormName()] = strings.ToValidUTF8(string(data), "�")
		}
	}
	return fields, files, nil
}

func headerBoundary(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["boundary"]
}

// sniffBoundary reads the delimiter from the first body line:
// "--<boundary>\r\n".
func sniffBoundary(body []byte) string {
	eol := bytes.Index(body, []byte("\r\n"))
	if eol <= 2 {
		return ""
	}
	first := bytes.TrimSpace(body[:eol])
	if !bytes.HasPrefix(first, []byte("--")) {
		return ""
	}
	return string(first[2:])
}
