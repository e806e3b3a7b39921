// Package eml reads RFC 822 message files into the pipeline's input shape.
// The analyze command and the HTTP API both accept .eml uploads through it.
package eml

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/sljesus/winm/extractor/common"
)

// ReadFile parses one .eml file. When the message carries no Message-ID
// the file name doubles as the email ID, so repeated imports of the same
// file stay idempotent downstream.
func ReadFile(path string) (common.RawEmail, error) {
	file, err := os.Open(path)
	if err != nil {
		return common.RawEmail{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	email, err := Read(file)
	if err != nil {
		return common.RawEmail{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if email.ID == "" {
		email.ID = filepath.Base(path)
	}
	return email, nil
}

// Read parses an RFC 822 message.
func Read(r io.Reader) (common.RawEmail, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return common.RawEmail{}, err
	}

	email := common.RawEmail{
		ID:      strings.Trim(msg.Header.Get("Message-ID"), "<>"),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		From:    decodeHeader(msg.Header.Get("From")),
		Date:    msg.Header.Get("Date"),
	}

	body, err := readBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return common.RawEmail{}, err
	}
	email.Body = body
	return email, nil
}

func readBody(contentType, transferEncoding string, r io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return readMultipart(r, params["boundary"])
	}

	data, err := io.ReadAll(decodeTransfer(r, transferEncoding))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := common.DecodeCharset(data, params["charset"])
	if strings.HasPrefix(mediaType, "text/html") {
		text = common.HTMLToText(text)
	}
	return strings.TrimSpace(text), nil
}

// readMultipart walks the parts in order. The first text/plain part wins;
// a text/html part is kept converted in case no plain part shows up.
func readMultipart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", errors.New("multipart body without boundary")
	}

	reader := multipart.NewReader(r, boundary)
	htmlBody := ""
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read part: %w", err)
		}

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			continue
		}

		if strings.HasPrefix(partType, "multipart/") {
			if nested, err := readMultipart(part, partParams["boundary"]); err == nil && nested != "" {
				return nested, nil
			}
			continue
		}

		data, err := io.ReadAll(decodeTransfer(part, part.Header.Get("Content-Transfer-Encoding")))
		if err != nil {
			continue
		}
		text := common.DecodeCharset(data, partParams["charset"])

		switch {
		case strings.HasPrefix(partType, "text/plain"):
			return strings.TrimSpace(text), nil
		case strings.HasPrefix(partType, "text/html") && htmlBody == "":
			htmlBody = common.HTMLToText(text)
		}
	}
	return strings.TrimSpace(htmlBody), nil
}

func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

var wordDecoder = mime.WordDecoder{CharsetReader: charsetReader}

// decodeHeader resolves RFC 2047 encoded words in Subject and From lines.
func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(common.DecodeCharset(data, charset)), nil
}
