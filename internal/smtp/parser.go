package smtp

import (
	"io"
	"net/mail"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
)

const maxSnippetLength = 255

var (
	scriptStyleTags = regexp.MustCompile(`(?i)<(script|style)[^>]*>[\s\S]*?</(script|style)>`)
	htmlTags        = regexp.MustCompile(`<[^>]*>`)
)

// ParsedEmail is a relayed message decoded by enmime
type ParsedEmail struct {
	SenderEmail string
	SenderName  string
	To          string
	Subject     string
	RequestID   string
	Snippet     string
	BodyText    string
	BodyHTML    string
	Attachments []models.Attachment
}

// ParseEmail parses an email from an io.Reader
func ParseEmail(r io.Reader) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{
		To:        env.GetHeader("To"),
		Subject:   env.GetHeader("Subject"),
		RequestID: env.GetHeader(models.RequestIDMailHeader),
		BodyText:  env.Text,
		BodyHTML:  env.HTML,
	}

	if from, err := env.AddressList("From"); err == nil && len(from) > 0 {
		parsed.SenderName, parsed.SenderEmail = from[0].Name, from[0].Address
	} else {
		parsed.SenderName, parsed.SenderEmail = parseFromHeader(env.GetHeader("From"))
	}
	parsed.Snippet = generateSnippet(parsed.BodyText, parsed.BodyHTML)

	for _, att := range env.Attachments {
		parsed.Attachments = append(parsed.Attachments,
			models.NewAttachment(att.FileName, att.ContentType, att.Content))
	}

	// Some clients mark CSV parts inline
	for _, att := range env.Inlines {
		if att.FileName != "" {
			parsed.Attachments = append(parsed.Attachments,
				models.NewAttachment(att.FileName, att.ContentType, att.Content))
		}
	}

	return parsed, nil
}

// AttachmentNames returns the filenames of the decoded attachments
func (p *ParsedEmail) AttachmentNames() []string {
	return models.AttachmentNames(p.Attachments)
}

// parseFromHeader extracts name and email from a From header. A value that
// is not an RFC 5322 address is returned as the email unchanged.
func parseFromHeader(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}

	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", from
	}
	return addr.Name, addr.Address
}

// generateSnippet creates a one-line preview, preferring the text part
func generateSnippet(bodyText, bodyHTML string) string {
	text := bodyText
	if text == "" && bodyHTML != "" {
		text = stripHTMLTags(bodyHTML)
	}

	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > maxSnippetLength {
		text = string(runes[:maxSnippetLength-3]) + "..."
	}

	return text
}

// stripHTMLTags removes markup and decodes the common entities
func stripHTMLTags(html string) string {
	html = scriptStyleTags.ReplaceAllString(html, "")
	html = htmlTags.ReplaceAllString(html, " ")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return replacer.Replace(html)
}
