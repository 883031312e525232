package models

import "strings"

// Attachment is an uploaded file bundled into an outbound email.
// It lives only for the duration of a request and is never stored.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"-"`
	Size        int64  `json:"size"`
}

// NewAttachment creates an Attachment whose size matches its content
func NewAttachment(filename, contentType string, content []byte) Attachment {
	return Attachment{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
		Size:        int64(len(content)),
	}
}

// AttachmentNames returns the filenames in submission order
func AttachmentNames(attachments []Attachment) []string {
	names := make([]string, 0, len(attachments))
	for _, att := range attachments {
		names = append(names, att.Filename)
	}
	return names
}

// JoinFileNames joins non-blank filenames with ", " for the audit trail
func JoinFileNames(names []string) string {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) != "" {
			kept = append(kept, name)
		}
	}
	return strings.Join(kept, ", ")
}
