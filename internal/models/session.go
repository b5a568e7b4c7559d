package models

import (
	"errors"
	"strings"
	"time"
)

// ErrCorruptSession marks a stored session that can no longer be decoded.
var ErrCorruptSession = errors.New("corrupt session record")

// State is the dialogue position of one user. The zero value means idle.
type State string

const (
	StateIdle                 State = ""
	StateReportOrg            State = "report.org"
	StateReportCategory       State = "report.category"
	StateReportDescription    State = "report.description"
	StateReportContact        State = "report.contact"
	StateReportContactDetails State = "report.contact_details"
	StateReportConfirm        State = "report.confirm"
	StateStatusWaitShortID    State = "status.wait_short_id"
	StateReporterFollowup     State = "reporter.followup"
	StateReviewerAwaitCode    State = "reviewer.await_code"
	StateReviewerReply        State = "reviewer.reply"
	StateReviewerAsk          State = "reviewer.ask"
	StateReviewerFindCase     State = "reviewer.find_case"
)

// Flow names a family of states sharing one draft shape.
type Flow string

const (
	FlowNone     Flow = ""
	FlowReport   Flow = "report"
	FlowStatus   Flow = "status"
	FlowFollowup Flow = "reporter"
	FlowReviewer Flow = "reviewer"
)

// Flow returns the flow prefix of the state tag.
func (s State) Flow() Flow {
	prefix, _, found := strings.Cut(string(s), ".")
	if !found {
		return FlowNone
	}
	return Flow(prefix)
}

// Draft is the flow-specific payload accumulated between turns.
type Draft interface {
	Flow() Flow
}

// ReportDraft collects a report before submission.
type ReportDraft struct {
	OrgID        string       `json:"org_id,omitempty"`
	CategoryID   string       `json:"category_id,omitempty"`
	Text         string       `json:"text,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	ContactOptIn bool         `json:"contact_opt_in"`
	ContactEmail *string      `json:"contact_email,omitempty"`
	ContactPhone *string      `json:"contact_phone,omitempty"`
	ContactNote  *string      `json:"contact_note,omitempty"`
}

func (*ReportDraft) Flow() Flow { return FlowReport }

// Submittable reports whether the draft has everything a case needs.
func (d *ReportDraft) Submittable() bool {
	return d != nil && d.OrgID != "" && d.CategoryID != "" && strings.TrimSpace(d.Text) != ""
}

// StatusDraft remembers the last case looked up, for the one-tap reply shortcut.
type StatusDraft struct {
	LastShortID string `json:"last_short_id,omitempty"`
}

func (*StatusDraft) Flow() Flow { return FlowStatus }

// FollowupDraft carries the case a reporter is answering.
type FollowupDraft struct {
	CaseID  string `json:"case_id"`
	ShortID string `json:"short_id,omitempty"`
}

func (*FollowupDraft) Flow() Flow { return FlowFollowup }

// ReviewerDraft tracks the active organization and, while composing, the target case.
type ReviewerDraft struct {
	ActiveOrgID string `json:"active_org_id,omitempty"`
	CaseID      string `json:"case_id,omitempty"`
}

func (*ReviewerDraft) Flow() Flow { return FlowReviewer }

// Session is the per-user dialogue record.
type Session struct {
	UserID    string
	State     State
	Draft     Draft
	UpdatedAt time.Time
}

// ReportDraft returns the report draft or nil when the session holds another flow.
func (s *Session) ReportDraft() *ReportDraft {
	if s == nil {
		return nil
	}
	d, _ := s.Draft.(*ReportDraft)
	return d
}

// ReviewerDraft returns the reviewer draft or nil.
func (s *Session) ReviewerDraft() *ReviewerDraft {
	if s == nil {
		return nil
	}
	d, _ := s.Draft.(*ReviewerDraft)
	return d
}

// FollowupDraft returns the follow-up draft or nil.
func (s *Session) FollowupDraft() *FollowupDraft {
	if s == nil {
		return nil
	}
	d, _ := s.Draft.(*FollowupDraft)
	return d
}
