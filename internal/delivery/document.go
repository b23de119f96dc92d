package delivery

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/terra-clan/cyber-assessment/internal/models"
)

// Fixed envelope of every report email
const (
	Recipient = "arpit.m@nexuses.in"
	Subject   = "Cybersecurity Assessment Results"
	LogoURL   = "https://cdn-nexlink.s3.us-east-2.amazonaws.com/logo@2x_8da173cb-2675-4b88-ac00-4d8d269f4dc4.webp"
)

//go:embed report.html.tmpl
var reportTemplate string

var documentTemplate = template.Must(template.New("report").Parse(reportTemplate))

type documentData struct {
	LogoURL    string
	Title      string
	Respondent models.RespondentInfo
	Score      int
	Rows       []models.ReportRow
}

// Document renders the HTML body of the report email
func Document(rep models.Report) (string, error) {
	var sb strings.Builder
	err := documentTemplate.Execute(&sb, documentData{
		LogoURL:    LogoURL,
		Title:      Subject,
		Respondent: rep.Respondent,
		Score:      rep.Score,
		Rows:       rep.Rows,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render report document: %w", err)
	}
	return sb.String(), nil
}
