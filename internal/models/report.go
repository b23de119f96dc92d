package models

// Band is a qualitative maturity classification of a score
type Band struct {
	Level   string `json:"level"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Result is what the respondent sees once the assessment is complete
type Result struct {
	Score    int  `json:"score"`
	MaxScore int  `json:"max_score"`
	Band     Band `json:"band"`
}

// ReportRow pairs a question prompt with the chosen option label
type ReportRow struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Report is a read-only snapshot of a completed assessment
type Report struct {
	Respondent RespondentInfo `json:"respondent"`
	Rows       []ReportRow    `json:"rows"`
	Score      int            `json:"score"`
}

// AssessmentRequest is the body of POST /api/send-assessment
type AssessmentRequest struct {
	PersonalInfo RespondentInfo `json:"personalInfo"`
	Answers      AnswerSet      `json:"answers"`
	Score        int            `json:"score"`
}

// MessageResponse is the body returned by /api/send-assessment
type MessageResponse struct {
	Message string `json:"message"`
}
