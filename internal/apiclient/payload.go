package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Encoding selects how a Payload is written on the wire.
type Encoding int

const (
	// EncodingAuto sends multipart when files are attached, JSON otherwise.
	EncodingAuto Encoding = iota
	EncodingJSON
	EncodingMultipart
)

// DataField is the multipart field that carries the JSON encoded fields.
const DataField = "data"

// FilePart is a named file attached to a multipart payload.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Payload is the body of a mutation.
type Payload struct {
	Data     any
	Files    []FilePart
	Encoding Encoding
}

// JSON builds a payload that is always sent as a JSON body.
func JSON(data any) Payload {
	return Payload{Data: data, Encoding: EncodingJSON}
}

// Multipart builds a payload sent as multipart/form-data.
func Multipart(data any, files ...FilePart) Payload {
	return Payload{Data: data, Files: files, Encoding: EncodingMultipart}
}

func (p Payload) resolve(fallback Encoding) Encoding {
	enc := p.Encoding
	if enc == EncodingAuto {
		enc = fallback
	}
	if enc == EncodingAuto {
		if len(p.Files) > 0 {
			return EncodingMultipart
		}
		return EncodingJSON
	}
	return enc
}

// encode returns the body and content type for the payload.
func (p Payload) encode(fallback Encoding) (io.Reader, string, error) {
	switch p.resolve(fallback) {
	case EncodingJSON:
		if len(p.Files) > 0 {
			return nil, "", ErrFilesRequireMultipart
		}
		if p.Data == nil {
			return nil, "", nil
		}
		raw, err := json.Marshal(p.Data)
		if err != nil {
			return nil, "", fmt.Errorf("apiclient: encode json body: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	default:
		return p.encodeMultipart()
	}
}

func (p Payload) encodeMultipart() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("apiclient: encode data field: %w", err)
	}
	if err := writer.WriteField(DataField, string(raw)); err != nil {
		return nil, "", err
	}

	for _, file := range p.Files {
		if strings.TrimSpace(file.Field) == "" {
			return nil, "", ErrFilePartFieldRequired
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, filenameOrDefault(file)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func filenameOrDefault(file FilePart) string {
	if name := strings.TrimSpace(file.Filename); name != "" {
		return name
	}
	return file.Field
}
