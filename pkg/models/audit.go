package models

import "time"

// AuditRecord is a single third-party audit found for an asset.
type AuditRecord struct {
	Firm       string    `json:"firm"`
	Date       time.Time `json:"date"`
	ReportURL  string    `json:"report_url"`
	Source     string    `json:"source"` // "repository", "docsite" or "curated"
	AuditType  string    `json:"audit_type,omitempty"`
	IssueCount int       `json:"issue_count,omitempty"`
}

// Key is the uniqueness key used when deduplicating audits across result
// sets: firm + date + report URL.
func (a AuditRecord) Key() string {
	return a.Firm + "|" + a.Date.Format("2006-01-02") + "|" + a.ReportURL
}
