package models

import "time"

// FormSubmission is the web form that accompanies the CSV upload
type FormSubmission struct {
	OrganizationName   string `json:"organizationName"`
	ResponsibleContact string `json:"responsibleContact"`
	Subject            string `json:"subject"`
	ReferencePeriod    string `json:"referencePeriod"`
	DataDescription    string `json:"dataDescription"`
	LGPDCompliance     bool   `json:"lgpdCompliance"`
}

// OutboundEmail is the message derived from one submission
type OutboundEmail struct {
	Recipient   string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// SendResponse summarizes a successful submission
type SendResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	SendDate  time.Time `json:"sendDate"`
	Recipient string    `json:"recipient"`
	FileCount int       `json:"fileCount"`
	FileNames []string  `json:"fileNames"`
	RequestID string    `json:"requestId,omitempty"`
}

// RequestIDMailHeader links a relayed message to the API request that produced it
const RequestIDMailHeader = "X-Formmail-Request-Id"
