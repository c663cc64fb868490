// Package actions runs generation actions over a resolved document scope.
package actions

import "docflow-backend/internal/scope"

// Action names accepted by Run.
const (
	MakeDocument = "make_document"
	MakeCSV      = "make_csv"
)

// DefaultUserMessage is used when the request carries no messages.
const DefaultUserMessage = "Summarize these documents."

// Message is one chat message from the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one action run.
type Request struct {
	OwnerID  string
	Scope    scope.Scope
	Messages []Message
	Actions  []string
}

// Result lists the generated documents and where to download them.
type Result struct {
	Message     string            `json:"message"`
	NewDocs     []string          `json:"newDocs"`
	Downloads   map[string]string `json:"downloads"`
	CreditsUsed int               `json:"creditsUsed"`
}

// Output describes one generated artifact kind. Outputs are produced in the
// order of the Outputs slice, whatever order the request names them in.
type Output struct {
	Action       string
	FilePrefix   string
	Extension    string
	Mime         string
	PromptSuffix string
}

// Outputs is the ordered set of supported artifacts: text before csv.
var Outputs = []Output{
	{
		Action:     MakeDocument,
		FilePrefix: "summary",
		Extension:  "txt",
		Mime:       "text/plain",
	},
	{
		Action:       MakeCSV,
		FilePrefix:   "report",
		Extension:    "csv",
		Mime:         "text/csv",
		PromptSuffix: "\n\nOutput a CSV with headers and rows summarizing vendor totals or key data.",
	},
}
