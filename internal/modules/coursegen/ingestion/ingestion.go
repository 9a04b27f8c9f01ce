// Package ingestion detects uploaded file types and extracts their text.
package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/ids"
	"github.com/yungbote/coursegen-backend/internal/platform/apierr"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZIP  = "application/zip"
	mimeText = "text/plain"

	// MaxFileBytes bounds a single upload.
	MaxFileBytes = 20 << 20
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

func unsupported(name, detected string) error {
	return apierr.New(http.StatusUnsupportedMediaType, "unsupported_file_type",
		fmt.Errorf("%w: name=%s detected=%s", ErrUnsupportedFileType, name, detected))
}

// DetectType sniffs the bytes first and falls back on the extension only for
// empty files.
func DetectType(name string, data []byte) (domain.DocumentType, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if len(data) == 0 {
		switch ext {
		case ".txt", ".md", ".text":
			return domain.DocumentTypeTXT, nil
		}
		return "", unsupported(name, "empty")
	}

	m := mimetype.Detect(data)
	switch {
	case m.Is(mimePDF):
		return domain.DocumentTypePDF, nil
	case m.Is(mimeDOCX):
		return domain.DocumentTypeDOCX, nil
	case m.Is(mimeZIP) && isWordContainer(data):
		return domain.DocumentTypeDOCX, nil
	}
	for p := m; p != nil; p = p.Parent() {
		if p.Is(mimeText) {
			return domain.DocumentTypeTXT, nil
		}
	}
	return "", unsupported(name, m.String())
}

// ExtractText returns the detected type and the document text.
func ExtractText(ctx context.Context, name string, data []byte) (domain.DocumentType, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if len(data) > MaxFileBytes {
		return "", "", apierr.New(http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Errorf("%s exceeds %d bytes", name, MaxFileBytes))
	}
	typ, err := DetectType(name, data)
	if err != nil {
		return "", "", err
	}
	switch typ {
	case domain.DocumentTypeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return "", "", apierr.New(http.StatusUnprocessableEntity, "extraction_failed", fmt.Errorf("docx %s: %w", name, err))
		}
		return typ, text, nil
	case domain.DocumentTypePDF:
		return typ, pdfPlaceholder(name), nil
	default:
		return typ, plainText(data), nil
	}
}

// NewDocument extracts the file and returns a processed document.
func NewDocument(ctx context.Context, name string, data []byte, now time.Time) (domain.Document, error) {
	typ, text, err := ExtractText(ctx, name, data)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:         ids.Document(name, text),
		Name:       name,
		Type:       typ,
		Size:       int64(len(data)),
		UploadedAt: now,
		Content:    text,
		Processed:  true,
	}, nil
}

// Binary PDF parsing is out of scope; the document still contributes its name.
func pdfPlaceholder(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return fmt.Sprintf("Document PDF %s. Le texte intégral n'a pas été extrait.", base)
}

func plainText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	s := string(data)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, " ")
	}
	return s
}

func isWordContainer(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}

// extractDOCX reads word/document.xml and emits one line per paragraph.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("missing word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, MaxFileBytes))
	var out strings.Builder
	var para strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "t":
				var v string
				if err := dec.DecodeElement(&v, &se); err != nil {
					return "", err
				}
				para.WriteString(v)
			case "tab":
				para.WriteByte(' ')
			case "br":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if se.Name.Local == "p" {
				if line := strings.TrimSpace(para.String()); line != "" {
					out.WriteString(line)
					out.WriteByte('\n')
				}
				para.Reset()
			}
		}
	}
	return strings.TrimRight(out.String(), "\n"), nil
}
