package audits

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

// Directory and filename markers for audit material inside a repository.
var (
	auditDirNames  = []string{"audit", "audits", "security", "docs/audits", "docs/security"}
	auditFileTerms = []string{"audit", "assessment", "review", "report", "attestation"}
	relevanceTerms = []string{"general", "protocol", "contract", "token", "stablecoin"}
)

// repoSearcher walks known code repositories for audit reports.
type repoSearcher struct {
	github *providers.GitHubClient
	logger *logrus.Entry
}

// Search scans each repository for audit-named folders and loose audit files,
// extracting firm, date and issue count from whatever text is available.
// Individual repository failures are logged and skipped.
func (s *repoSearcher) Search(ctx context.Context, symbol string, repoURLs []string) []models.AuditRecord {
	var records []models.AuditRecord
	for _, repoURL := range repoURLs {
		fullName, ok := providers.ParseRepoURL(repoURL)
		if !ok {
			continue
		}
		found, err := s.searchRepo(ctx, symbol, fullName)
		if err != nil {
			s.logger.WithError(err).WithField("repo", fullName).Debug("Repository audit search failed")
			continue
		}
		records = append(records, found...)
	}
	return records
}

func (s *repoSearcher) searchRepo(ctx context.Context, symbol, fullName string) ([]models.AuditRecord, error) {
	root, err := s.github.ListDir(ctx, fullName, "")
	if err != nil {
		return nil, err
	}

	var records []models.AuditRecord

	for _, entry := range root {
		if entry.Type == "dir" && isAuditDir(entry.Name) {
			dir, err := s.github.ListDir(ctx, fullName, entry.Path)
			if err != nil {
				continue
			}
			for _, file := range dir {
				if file.Type != "file" {
					continue
				}
				if r := s.analyzeFile(ctx, symbol, fullName, file, true); r != nil {
					records = append(records, *r)
				}
			}
		}
		if entry.Type == "file" && isAuditFile(entry.Name) {
			if r := s.analyzeFile(ctx, symbol, fullName, entry, false); r != nil {
				records = append(records, *r)
			}
		}
	}
	return records, nil
}

// analyzeFile turns one repository file into an audit record, or nil when the
// file is not relevant to the target asset.
func (s *repoSearcher) analyzeFile(ctx context.Context, symbol, fullName string, file providers.RepoEntry, inAuditDir bool) *models.AuditRecord {
	name := strings.ToLower(file.Name)
	if !inAuditDir && !isAuditFile(name) {
		return nil
	}
	if !isRelevant(name, symbol) {
		return nil
	}

	content, err := s.github.FileText(ctx, fullName, file.Path)
	if err != nil {
		content = ""
	}

	firm := ExtractFirm(file.Name)
	if firm == "" {
		firm = ExtractFirm(content)
	}
	if firm == "" {
		return nil
	}

	date := ExtractDate(file.Name)
	if date.IsZero() {
		date = ExtractDate(content)
	}

	return &models.AuditRecord{
		Firm:       firm,
		Date:       date,
		ReportURL:  file.HTMLURL,
		Source:     "repository",
		AuditType:  ClassifyAuditType(file.Name, content),
		IssueCount: CountIssues(content),
	}
}

func isAuditDir(name string) bool {
	lower := strings.ToLower(name)
	for _, d := range auditDirNames {
		if lower == d {
			return true
		}
	}
	return false
}

func isAuditFile(name string) bool {
	return containsAny(strings.ToLower(name), auditFileTerms...)
}

// isRelevant accepts files naming the target symbol, or generic
// protocol-level material when nothing is symbol-specific.
func isRelevant(fileName, symbol string) bool {
	lower := strings.ToLower(fileName)
	if strings.Contains(lower, strings.ToLower(symbol)) {
		return true
	}
	return containsAny(lower, relevanceTerms...) || isAuditFile(lower)
}
