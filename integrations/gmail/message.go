package gmail

import (
	"encoding/base64"
	"log"
	"mime"
	"strings"

	"github.com/sljesus/winm/extractor/common"
)

// message mirrors the slice of the Gmail API Message resource we read.
type message struct {
	ID      string       `json:"id"`
	Snippet string       `json:"snippet"`
	Payload *messagePart `json:"payload"`
}

type messagePart struct {
	MimeType string         `json:"mimeType"`
	Headers  []header       `json:"headers"`
	Body     partBody       `json:"body"`
	Parts    []*messagePart `json:"parts"`
}

type header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type partBody struct {
	Data string `json:"data"`
	Size int    `json:"size"`
}

// toRawEmail flattens the payload tree into the pipeline's input shape.
// text/plain wins over text/html; HTML is converted to text so the parsers
// never see markup. A message with no readable part keeps the snippet.
func (m *message) toRawEmail() common.RawEmail {
	email := common.RawEmail{ID: m.ID}
	if m.Payload == nil {
		email.Body = m.Snippet
		return email
	}

	email.Subject = m.Payload.headerValue("Subject")
	email.From = m.Payload.headerValue("From")
	email.Date = m.Payload.headerValue("Date")

	if plain := m.Payload.findPart("text/plain"); plain != nil {
		email.Body = decodePartBody(plain)
	} else if html := m.Payload.findPart("text/html"); html != nil {
		email.Body = common.HTMLToText(decodePartBody(html))
	}
	if email.Body == "" {
		email.Body = m.Snippet
	}
	return email
}

func (p *messagePart) headerValue(name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// findPart walks the part tree depth first and returns the first part of
// the wanted MIME type that actually carries data.
func (p *messagePart) findPart(mimeType string) *messagePart {
	if strings.HasPrefix(strings.ToLower(p.MimeType), mimeType) && p.Body.Data != "" {
		return p
	}
	for _, part := range p.Parts {
		if found := part.findPart(mimeType); found != nil {
			return found
		}
	}
	return nil
}

func decodePartBody(part *messagePart) string {
	// The API serves base64url, usually without padding.
	data, err := base64.RawURLEncoding.DecodeString(part.Body.Data)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			log.Printf("⚠️ undecodable %s part: %v", part.MimeType, err)
			return ""
		}
	}
	charset := ""
	if _, params, err := mime.ParseMediaType(part.headerValue("Content-Type")); err == nil {
		charset = params["charset"]
	}
	return common.DecodeCharset(data, charset)
}
