package model

type SubmissionStatus string

const (
	StatusPending             SubmissionStatus = "pending"
	StatusJudging             SubmissionStatus = "judging"
	StatusAccepted            SubmissionStatus = "accepted"
	StatusWrongAnswer         SubmissionStatus = "wrong_answer"
	StatusTimeLimitExceeded   SubmissionStatus = "time_limit_exceeded"
	StatusMemoryLimitExceeded SubmissionStatus = "memory_limit_exceeded"
	StatusRuntimeError        SubmissionStatus = "runtime_error"
	StatusCompilationError    SubmissionStatus = "compilation_error"
	StatusSystemError         SubmissionStatus = "system_error"
)

// InProgress reports whether the judge is still working on a submission.
// Any status other than pending or judging is terminal.
func (s SubmissionStatus) InProgress() bool {
	return s == StatusPending || s == StatusJudging
}

const LanguageCPP = "cpp"

type TestCaseResult struct {
	TestCaseID   string           `json:"test_case_id"`
	Status       SubmissionStatus `json:"status"`
	TimeUsed     int              `json:"time_used"`   // ms
	MemoryUsed   int              `json:"memory_used"` // KB
	ErrorMessage *string          `json:"error_message,omitempty"`
	Output       *string          `json:"output,omitempty"`
}

type Submission struct {
	ID              string           `json:"id"`
	ProblemID       string           `json:"problem_id"`
	UserID          string           `json:"user_id"`
	Code            string           `json:"code,omitempty"` // omitted from listings
	Language        string           `json:"language"`
	Status          SubmissionStatus `json:"status"`
	SubmittedAt     Timestamp        `json:"submitted_at"`
	TimeUsed        int              `json:"time_used"`   // ms, max over test cases
	MemoryUsed      int              `json:"memory_used"` // KB, max over test cases
	ErrorMessage    *string          `json:"error_message,omitempty"`
	TestCaseResults []TestCaseResult `json:"test_case_results,omitempty"`
	LLMEvaluation   map[string]any   `json:"llm_evaluation,omitempty"`
}

type SubmissionCreate struct {
	ProblemID string `json:"problem_id"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}
