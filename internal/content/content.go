// Package content derives the subject line and HTML body of the outbound
// email from a form submission.
package content

import (
	"fmt"
	"html"
	"strings"

	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
)

// Subject returns "Formulário: {subject} - Órgão: {organizationName}"
func Subject(form models.FormSubmission) string {
	return fmt.Sprintf("Formulário: %s - Órgão: %s", form.Subject, form.OrganizationName)
}

// HTMLBody renders the form as an HTML document. Field values are escaped
// and line breaks in the data description become <br> tags.
func HTMLBody(form models.FormSubmission) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html><html><head><meta charset='UTF-8'>")
	b.WriteString("<title>Dados do Formulário</title></head><body>")
	b.WriteString("<h2>Dados do Formulário Enviado</h2>")

	writeField(&b, "Nome do Órgão", form.OrganizationName)
	writeField(&b, "Contato do Responsável", form.ResponsibleContact)
	writeField(&b, "Tema", form.Subject)
	writeField(&b, "Período de Referência", form.ReferencePeriod)

	b.WriteString("<h3>Descrição dos Dados:</h3><p>")
	b.WriteString(descriptionHTML(form.DataDescription))
	b.WriteString("</p>")

	if form.LGPDCompliance {
		b.WriteString("<p><strong>LGPD:</strong> Dados em conformidade com a LGPD ✓</p>")
	}

	b.WriteString("<p><em>Os arquivos CSV estão anexados a este email.</em></p>")
	b.WriteString("<hr><p><small>Email enviado automaticamente pelo Sistema Mcqueen</small></p>")
	b.WriteString("</body></html>")

	return b.String()
}

// Build assembles the outbound email for a recipient
func Build(form models.FormSubmission, recipient string, attachments []models.Attachment) models.OutboundEmail {
	return models.OutboundEmail{
		Recipient:   recipient,
		Subject:     Subject(form),
		HTMLBody:    HTMLBody(form),
		Attachments: attachments,
	}
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<p><strong>%s:</strong> %s</p>", label, html.EscapeString(value))
}

func descriptionHTML(description string) string {
	normalized := strings.ReplaceAll(description, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return strings.Join(lines, "<br>")
}
