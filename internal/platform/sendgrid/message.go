package sendgrid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Message is one outgoing mail. From falls back to the client default.
type Message struct {
	From        Address
	To          []Address
	CC          []Address
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Receipt is what SendGrid hands back on acceptance.
type Receipt struct {
	StatusCode int
	MessageID  string
}

type payload struct {
	Personalizations []envelope `json:"personalizations"`
	From             Address    `json:"from"`
	Subject          string     `json:"subject"`
	Content          []part     `json:"content"`
	Attachments      []wireFile `json:"attachments,omitempty"`
}

type envelope struct {
	To []Address `json:"to"`
	Cc []Address `json:"cc,omitempty"`
}

type part struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type wireFile struct {
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

var (
	errNoSender    = errors.New("sendgrid: sender required (set MAIL_FROM)")
	errNoRecipient = errors.New("sendgrid: recipient required")
	errNoSubject   = errors.New("sendgrid: subject required")
	errNoBody      = errors.New("sendgrid: text or html body required")
)

func (m Message) payload(fallback Address) (*payload, error) {
	from := m.From
	if strings.TrimSpace(from.Email) == "" {
		from = fallback
	}
	subject := strings.TrimSpace(m.Subject)
	switch {
	case from.Email == "":
		return nil, errNoSender
	case len(m.To) == 0:
		return nil, errNoRecipient
	case subject == "":
		return nil, errNoSubject
	}

	var body []part
	for _, p := range []part{{"text/plain", m.Text}, {"text/html", m.HTML}} {
		if v := strings.TrimSpace(p.Value); v != "" {
			body = append(body, part{Type: p.Type, Value: v})
		}
	}
	if len(body) == 0 {
		return nil, errNoBody
	}

	files := make([]wireFile, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		name := strings.TrimSpace(a.Filename)
		if name == "" || len(a.Content) == 0 {
			return nil, fmt.Errorf("sendgrid: attachment %q needs a name and content", name)
		}
		files = append(files, wireFile{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        strings.TrimSpace(a.MIMEType),
			Filename:    name,
			Disposition: "attachment",
		})
	}

	return &payload{
		Personalizations: []envelope{{To: m.To, Cc: dedupeCC(m.To, m.CC)}},
		From:             from,
		Subject:          subject,
		Content:          body,
		Attachments:      files,
	}, nil
}

// dedupeCC drops blanks and any address already present in to, since the API
// rejects a personalization that names the same mailbox twice.
func dedupeCC(to, cc []Address) []Address {
	seen := make(map[string]struct{}, len(to)+len(cc))
	for _, a := range to {
		seen[strings.ToLower(strings.TrimSpace(a.Email))] = struct{}{}
	}
	var out []Address
	for _, a := range cc {
		key := strings.ToLower(strings.TrimSpace(a.Email))
		if _, dup := seen[key]; key == "" || dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
