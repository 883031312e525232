package models

import (
	"time"

	"gorm.io/gorm"
)

// Send status values stored in EmailAudit.SendStatus
const (
	SendStatusSuccess     = "SUCCESS"
	SendStatusErrorPrefix = "ERROR: "
)

// StatusError groups every failed attempt in aggregates
const StatusError = "ERROR"

// EmailAudit records one send attempt and its outcome. Rows are append-only.
// Free-text form fields use text columns so that rejected submissions with
// oversized values are still recorded.
type EmailAudit struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	RequestID          string    `gorm:"size:36;index" json:"requestId,omitempty"`
	Recipient          string    `gorm:"not null;size:255;index" json:"recipient"`
	EmailSubject       string    `gorm:"not null;type:text" json:"emailSubject"`
	OrganizationName   string    `gorm:"not null;type:text" json:"organizationName"`
	ResponsibleContact string    `gorm:"not null;type:text" json:"responsibleContact"`
	Subject            string    `gorm:"not null;type:text" json:"subject"`
	ReferencePeriod    string    `gorm:"not null;type:text" json:"referencePeriod"`
	DataDescription    string    `gorm:"type:text" json:"dataDescription"`
	FileCount          int       `json:"fileCount"`
	FileNames          string    `gorm:"type:text" json:"fileNames"`
	SendStatus         string    `gorm:"not null;type:text" json:"sendStatus"`
	SendDate           time.Time `gorm:"not null;index" json:"sendDate"`
	LGPDCompliance     bool      `gorm:"default:false" json:"lgpdCompliance"`
}

// TableName returns the table name for EmailAudit
func (EmailAudit) TableName() string {
	return "email_audit"
}

// BeforeCreate stamps the send date when the caller left it unset
func (a *EmailAudit) BeforeCreate(tx *gorm.DB) error {
	if a.SendDate.IsZero() {
		a.SendDate = time.Now().UTC()
	}
	return nil
}

// Succeeded reports whether the attempt was delivered to the transport
func (a *EmailAudit) Succeeded() bool {
	return a.SendStatus == SendStatusSuccess
}

// StatusCount is one row of the per-status aggregate
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ErrorStatus formats a failure cause as a send status
func ErrorStatus(cause string) string {
	return SendStatusErrorPrefix + cause
}
