package model

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "easy"
	DifficultyMedium ProblemDifficulty = "medium"
	DifficultyHard   ProblemDifficulty = "hard"
)

type TestCase struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	IsSample bool   `json:"is_sample"`
}

type Problem struct {
	ID               string            `json:"id"`
	CustomID         *string           `json:"custom_id,omitempty"` // e.g. "P1001"
	Slug             string            `json:"slug,omitempty"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Difficulty       ProblemDifficulty `json:"difficulty"`
	Tags             []string          `json:"tags"`
	TimeLimit        int               `json:"time_limit"`   // ms
	MemoryLimit      int               `json:"memory_limit"` // MB
	IsPublic         bool              `json:"is_public"`
	HasSpecialJudge  bool              `json:"has_special_judge"`
	SpecialJudgeCode *string           `json:"special_judge_code,omitempty"`
	TestCases        []TestCase        `json:"test_cases,omitempty"` // admin/author view only
	SampleTestCases  []TestCase        `json:"sample_test_cases"`
	AuthorID         string            `json:"author_id"`
	SubmissionCount  int               `json:"submission_count"`
	AcceptedCount    int               `json:"accepted_count"`
	CreatedAt        Timestamp         `json:"created_at"`
	UpdatedAt        Timestamp         `json:"updated_at"`
}

// ProblemCreate is the admin payload for POST /problems.
type ProblemCreate struct {
	CustomID         *string           `json:"custom_id,omitempty"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Difficulty       ProblemDifficulty `json:"difficulty"`
	Tags             []string          `json:"tags"`
	TimeLimit        int               `json:"time_limit"`
	MemoryLimit      int               `json:"memory_limit"`
	IsPublic         bool              `json:"is_public"`
	HasSpecialJudge  bool              `json:"has_special_judge"`
	SpecialJudgeCode *string           `json:"special_judge_code,omitempty"`
	TestCases        []TestCase        `json:"test_cases"`
	SampleTestCases  []TestCase        `json:"sample_test_cases"`
}

// ProblemUpdate is a partial update for PUT /problems/{id}.
type ProblemUpdate struct {
	Title            *string            `json:"title,omitempty"`
	Description      *string            `json:"description,omitempty"`
	Difficulty       *ProblemDifficulty `json:"difficulty,omitempty"`
	Tags             []string           `json:"tags,omitempty"`
	TimeLimit        *int               `json:"time_limit,omitempty"`
	MemoryLimit      *int               `json:"memory_limit,omitempty"`
	IsPublic         *bool              `json:"is_public,omitempty"`
	HasSpecialJudge  *bool              `json:"has_special_judge,omitempty"`
	SpecialJudgeCode *string            `json:"special_judge_code,omitempty"`
	TestCases        []TestCase         `json:"test_cases,omitempty"`
	SampleTestCases  []TestCase         `json:"sample_test_cases,omitempty"`
}
