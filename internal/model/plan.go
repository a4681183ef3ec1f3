package model

import (
	"fmt"
	"time"
)

type FileAction string

const (
	ActionAdd     FileAction = "ADD"
	ActionModify  FileAction = "MODIFY"
	ActionDelete  FileAction = "DELETE"
	ActionRepair  FileAction = "REPAIR"
	ActionAnalyze FileAction = "ANALYZE"
	ActionInstall FileAction = "INSTALL"
	ActionRun     FileAction = "RUN"
)

// RequestType tells the Plan Service what kind of LLM request it is handling.
// Only the planner-relevant subset is declared here.
type RequestType string

const (
	RequestTextOnly             RequestType = "TEXT_ONLY"
	RequestTextWithImage        RequestType = "TEXT_WITH_IMAGE"
	RequestTextWithFile         RequestType = "TEXT_WITH_FILE"
	RequestLLMGeneration        RequestType = "LLM_GENERATION"
	RequestLLMCodeAnalysis      RequestType = "LLM_CODE_ANALYSIS"
	RequestLLMCodeOptimization  RequestType = "LLM_CODE_OPTIMIZATION"
	RequestLLMCodeRepair        RequestType = "LLM_CODE_REPAIR"
	RequestLLMCodeDocumentation RequestType = "LLM_CODE_DOCUMENTATION"
	RequestRefactor             RequestType = "REFACTOR"
	RequestErrorAnalysis        RequestType = "ERROR_ANALYSIS"
	RequestOther                RequestType = "OTHER"
)

type OutputFormat string

const (
	OutputJSON     OutputFormat = "JSON"
	OutputText     OutputFormat = "TEXT"
	OutputMarkdown OutputFormat = "MARKDOWN"
	OutputYAML     OutputFormat = "YAML"
	OutputDiff     OutputFormat = "DIFF"
)

// ScannedFile is a file's content sent along as LLM context.
type ScannedFile struct {
	FilePath     string `json:"filePath"`
	RelativePath string `json:"relativePath"`
	Content      string `json:"content"`
}

// LLMInput is the body of a generate-plan request.
type LLMInput struct {
	UserPrompt             string        `json:"userPrompt"`
	ProjectRoot            string        `json:"projectRoot,omitempty"`
	ProjectStructure       string        `json:"projectStructure,omitempty"`
	RelevantFiles          []ScannedFile `json:"relevantFiles,omitempty"`
	AdditionalInstructions string        `json:"additionalInstructions,omitempty"`
	ExpectedOutputFormat   string        `json:"expectedOutputFormat"`
	ScanPaths              []string      `json:"scanPaths,omitempty"`
	RequestType            RequestType   `json:"requestType"`
	Output                 OutputFormat  `json:"output,omitempty"`
	FileData               string        `json:"fileData,omitempty"`
	FileMimeType           string        `json:"fileMimeType,omitempty"`
}

// Validate checks the fields the Plan Service rejects outright.
func (in *LLMInput) Validate() error {
	if in.UserPrompt == "" {
		return fmt.Errorf("user prompt is required")
	}
	if in.RequestType == "" {
		return fmt.Errorf("request type is required")
	}
	if in.FileData != "" && in.FileMimeType == "" {
		return fmt.Errorf("file mime type is required when file data is attached")
	}
	return nil
}

type FileChange struct {
	FilePath   string     `json:"filePath"`
	Action     FileAction `json:"action"`
	NewContent string     `json:"newContent,omitempty"`
	Diff       string     `json:"diff,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

type Plan struct {
	ID                     string       `json:"id"`
	Title                  string       `json:"title"`
	Summary                string       `json:"summary,omitempty"`
	ThoughtProcess         string       `json:"thoughtProcess,omitempty"`
	Documentation          string       `json:"documentation,omitempty"`
	GitInstructions        []string     `json:"gitInstructions,omitempty"`
	LLMInput               *LLMInput    `json:"llmInput,omitempty"`
	CreatedAt              time.Time    `json:"createdAt"`
	UpdatedAt              *time.Time   `json:"updatedAt,omitempty"`
	LastExecutionStatus    string       `json:"lastExecutionStatus,omitempty"`
	LastExecutionError     string       `json:"lastExecutionError,omitempty"`
	LastExecutionTimestamp *time.Time   `json:"lastExecutionTimestamp,omitempty"`
	Changes                []FileChange `json:"changes"`
}

// PlanListItem is the overview row returned by the paginated plan list.
type PlanListItem struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Summary             string     `json:"summary,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
	LastExecutionStatus string     `json:"lastExecutionStatus,omitempty"`
}

type PaginatedPlans struct {
	Items      []PlanListItem `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type GeneratePlanResponse struct {
	PlanID string `json:"planId"`
	Plan   Plan   `json:"plan"`
}

// ApplyResult reports the outcome of applying a plan or a single change.
type ApplyResult struct {
	OK       bool             `json:"ok"`
	Error    string           `json:"error,omitempty"`
	Details  string           `json:"details,omitempty"`
	Snapshot string           `json:"snapshot,omitempty"` // commit taken before applying
	NewHead  string           `json:"newHead,omitempty"`  // commit after applying
	Results  []map[string]any `json:"results,omitempty"`
}
