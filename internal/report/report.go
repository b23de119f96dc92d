// Package report turns a completed assessment into a read-only Report.
package report

import (
	"github.com/terra-clan/cyber-assessment/internal/models"
	"github.com/terra-clan/cyber-assessment/internal/questions"
)

// Placeholders used when an answer cannot be resolved against the bank
const (
	UnknownQuestion = "Unknown question"
	UnknownAnswer   = "Unknown answer"
)

// Render builds a report with one row per answered question, in answer order
func Render(bank *questions.Bank, respondent models.RespondentInfo, answers models.AnswerSet, score int) models.Report {
	entries := answers.Entries()
	rows := make([]models.ReportRow, 0, len(entries))

	for _, a := range entries {
		row := models.ReportRow{
			Question: UnknownQuestion,
			Answer:   UnknownAnswer,
		}

		if q, ok := bank.Find(a.QuestionID); ok {
			row.Question = q.Text
			if opt, ok := q.OptionFor(a.Weight); ok {
				row.Answer = opt.Label
			}
		}

		rows = append(rows, row)
	}

	return models.Report{
		Respondent: respondent,
		Rows:       rows,
		Score:      score,
	}
}

// FromSession renders the report for a session with an already computed score
func FromSession(bank *questions.Bank, s *models.Session, score int) models.Report {
	return Render(bank, s.Respondent, s.Answers, score)
}
