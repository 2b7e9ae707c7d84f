package models

import "strings"

// IssueStatus is the workflow state reported by the issue tracker
type IssueStatus string

const (
	IssueToDo       IssueStatus = "TO_DO"
	IssueInProgress IssueStatus = "IN_PROGRESS"
	IssueInReview   IssueStatus = "IN_REVIEW"
	IssueInQA       IssueStatus = "IN_QA"
	IssueQAPassed   IssueStatus = "QA_PASSED"
	IssueQAFailed   IssueStatus = "QA_FAILED"
	IssueInUAT      IssueStatus = "IN_UAT"
	IssueUATPassed  IssueStatus = "UAT_PASSED"
	IssueUATFailed  IssueStatus = "UAT_FAILED"
	IssueDone       IssueStatus = "DONE"
	IssueClosed     IssueStatus = "CLOSED"
	IssueBlocked    IssueStatus = "BLOCKED"
	IssueOnHold     IssueStatus = "ON_HOLD"
)

var issueStatusAliases = map[string]IssueStatus{
	"to do":                   IssueToDo,
	"open":                    IssueToDo,
	"new":                     IssueToDo,
	"in progress":             IssueInProgress,
	"development":             IssueInProgress,
	"dev":                     IssueInProgress,
	"in review":               IssueInReview,
	"code review":             IssueInReview,
	"review":                  IssueInReview,
	"in qa":                   IssueInQA,
	"qa":                      IssueInQA,
	"testing":                 IssueInQA,
	"qa passed":               IssueQAPassed,
	"tested":                  IssueQAPassed,
	"qa failed":               IssueQAFailed,
	"testing failed":          IssueQAFailed,
	"in uat":                  IssueInUAT,
	"uat":                     IssueInUAT,
	"user acceptance testing": IssueInUAT,
	"uat passed":              IssueUATPassed,
	"uat approved":            IssueUATPassed,
	"uat failed":              IssueUATFailed,
	"uat rejected":            IssueUATFailed,
	"done":                    IssueDone,
	"resolved":                IssueDone,
	"complete":                IssueDone,
	"completed":               IssueDone,
	"closed":                  IssueClosed,
	"blocked":                 IssueBlocked,
	"impediment":              IssueBlocked,
	"on hold":                 IssueOnHold,
	"hold":                    IssueOnHold,
	"paused":                  IssueOnHold,
}

// ParseIssueStatus maps a tracker status label onto an IssueStatus.
// Unknown or empty labels map to IssueToDo.
func ParseIssueStatus(label string) IssueStatus {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if s, ok := issueStatusAliases[normalized]; ok {
		return s
	}
	upper := IssueStatus(strings.ToUpper(strings.ReplaceAll(normalized, " ", "_")))
	for _, s := range issueStatusAliases {
		if s == upper {
			return s
		}
	}
	return IssueToDo
}

// Issue is a work item as reported by the issue tracker
type Issue struct {
	Key         string `json:"key" binding:"required"`
	Assignee    string `json:"assignee"`
	Status      string `json:"status"`
	StoryPoints *int   `json:"story_points,omitempty"`
	DueDate     *Date  `json:"due_date,omitempty"`
}

// Unassigned reports whether the issue has no usable assignee
func (i Issue) Unassigned() bool {
	a := strings.TrimSpace(i.Assignee)
	return a == "" || strings.EqualFold(a, "Unassigned")
}

// SyncResult summarizes an issue tracker sync
type SyncResult struct {
	ActiveIssues       int `json:"active_issues"`
	Assignees          int `json:"assignees"`
	MembersCreated     int `json:"members_created"`
	AssignmentsCreated int `json:"assignments_created"`
}
