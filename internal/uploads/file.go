package uploads

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
)

var (
	ErrEmptyFile       = errors.New("uploads: file is empty")
	ErrFileTooLarge    = errors.New("uploads: file exceeds the maximum size")
	ErrTypeNotAllowed  = errors.New("uploads: file type is not allowed")
	ErrInvalidDataURL  = errors.New("uploads: invalid data url")
	ErrFileRequired    = errors.New("uploads: a file or existing url is required")
	ErrIndexOutOfRange = errors.New("uploads: gallery index out of range")
	ErrUnknownURL      = errors.New("uploads: url is not one of the stored images")
)

// File is a selected upload held in memory until submission.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the length of the file content.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// DataURL renders the file as a data: URL usable as an inline preview.
func (f File) DataURL() string {
	return "data:" + mediaType(f.ContentType) + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Part converts the file into a multipart file part named field.
func (f File) Part(field string) apiclient.FilePart {
	return apiclient.FilePart{
		Field:       field,
		Filename:    f.Name,
		ContentType: mediaType(f.ContentType),
		Data:        f.Data,
	}
}

// Policy bounds accepted uploads. Zero values disable the check.
type Policy struct {
	MaxSize      int64
	AllowedTypes []string
}

// Check validates the size and sniffed type of f.
func (p Policy) Check(f File) error {
	if len(f.Data) == 0 {
		return ErrEmptyFile
	}
	if p.MaxSize > 0 && f.Size() > p.MaxSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, f.Size(), p.MaxSize)
	}
	if len(p.AllowedTypes) == 0 {
		return nil
	}
	detected := mimetype.Detect(f.Data)
	for _, allowed := range p.AllowedTypes {
		if detected.Is(strings.TrimSpace(allowed)) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTypeNotAllowed, detected.String())
}

// ReadFile reads r into a File, sniffing its content type and enforcing
// policy. Reads stop one byte past MaxSize.
func ReadFile(ctx context.Context, r io.Reader, name string, policy Policy) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	reader := r
	if policy.MaxSize > 0 {
		reader = io.LimitReader(r, policy.MaxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return File{}, fmt.Errorf("uploads: read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	file := File{
		Name:        strings.TrimSpace(name),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
	if err := policy.Check(file); err != nil {
		return File{}, err
	}
	if file.Name == "" {
		file.Name = "upload" + mimetype.Detect(data).Extension()
	}
	return file, nil
}

// FromMultipart reads an uploaded form file.
func FromMultipart(ctx context.Context, header *multipart.FileHeader, policy Policy) (File, error) {
	if header == nil {
		return File{}, ErrEmptyFile
	}
	src, err := header.Open()
	if err != nil {
		return File{}, fmt.Errorf("uploads: open %s: %w", header.Filename, err)
	}
	defer src.Close()
	return ReadFile(ctx, src, header.Filename, policy)
}

// ParseDataURL decodes a base64 data: URL produced by DataURL back into a
// File so a preview survives a server-side re-render.
func ParseDataURL(ctx context.Context, value, name string, policy Policy) (File, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), "data:")
	if !ok {
		return File{}, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return File{}, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return ReadFile(ctx, bytes.NewReader(data), name, policy)
}

// IsDataURL reports whether value holds an inline preview rather than a
// remote URL.
func IsDataURL(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "data:")
}

func mediaType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mt
}
