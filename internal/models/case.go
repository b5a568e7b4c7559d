package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CaseStatus is the lifecycle position of a case.
type CaseStatus string

const (
	StatusNew                 CaseStatus = "new"
	StatusTriage              CaseStatus = "triage"
	StatusInProgress          CaseStatus = "in_progress"
	StatusResolvedConfirmed   CaseStatus = "resolved_confirmed"
	StatusResolvedUnconfirmed CaseStatus = "resolved_unconfirmed"
	StatusRejected            CaseStatus = "rejected"
)

// AllStatuses lists the fixed status set in lifecycle order.
var AllStatuses = []CaseStatus{
	StatusNew,
	StatusTriage,
	StatusInProgress,
	StatusResolvedConfirmed,
	StatusResolvedUnconfirmed,
	StatusRejected,
}

// Valid reports whether s belongs to the status set.
func (s CaseStatus) Valid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s CaseStatus) IsTerminal() bool {
	return s == StatusResolvedConfirmed || s == StatusResolvedUnconfirmed || s == StatusRejected
}

// SenderType tags who authored a transcript entry.
type SenderType string

const (
	SenderReporter SenderType = "reporter"
	SenderReviewer SenderType = "reviewer"
)

// Audit actions written by the case repository and the reviewer directory.
const (
	AuditCaseCreated      = "CASE_CREATED"
	AuditCaseStatus       = "CASE_STATUS"
	AuditCaseAssign       = "CASE_ASSIGN"
	AuditReviewerVerified = "REVIEWER_VERIFIED"
)

// Attachment describes a file the transport already holds; only the reference is kept.
type Attachment struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	ContentRef string `json:"content_ref"`
	MimeType   string `json:"mime_type,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Attachment types.
const (
	AttachmentPhoto    = "photo"
	AttachmentDocument = "document"
	AttachmentVideo    = "video"
	AttachmentVoice    = "voice"
	AttachmentAudio    = "audio"
)

// Case is one submitted report.
// OrgID and CategoryID are written once at creation and never updated.
type Case struct {
	ID                 string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ShortID            string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"short_id"`
	OrgID              string     `gorm:"type:varchar(64);not null;index:idx_case_org_status" json:"org_id"`
	CategoryID         string     `gorm:"type:varchar(64);not null" json:"category_id"`
	Text               string     `gorm:"type:text;not null" json:"text"`
	Status             CaseStatus `gorm:"type:varchar(32);not null;index:idx_case_org_status" json:"status"`
	ReporterUserID     string     `gorm:"type:varchar(64);not null;index" json:"reporter_user_id"`
	ReporterChannelRef string     `gorm:"type:varchar(128)" json:"reporter_channel_ref"`
	ContactOptIn       bool       `json:"contact_opt_in"`
	ContactEmail       *string    `json:"contact_email"`
	ContactPhone       *string    `json:"contact_phone"`
	ContactNote        *string    `gorm:"type:text" json:"contact_note"`

	Attachments     datatypes.JSONSlice[Attachment] `json:"attachments"`
	PendingQuestion *string                         `gorm:"type:text" json:"pending_question"`
	AssigneeUserID  *string                         `gorm:"type:varchar(64)" json:"assignee_user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// BeforeCreate, хук GORM, генерує UUID для звернення, якщо ID ще не встановлено.
func (c *Case) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// CaseMessage is an append-only transcript entry.
type CaseMessage struct {
	ID          uint                            `gorm:"primaryKey" json:"id"`
	CaseID      string                          `gorm:"type:varchar(36);not null;index" json:"case_id"`
	SenderType  SenderType                      `gorm:"type:varchar(16);not null" json:"sender_type"`
	Text        string                          `gorm:"type:text" json:"text"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	CreatedAt   time.Time                       `json:"created_at"`
}

// AuditEntry is an append-only record of a domain action.
type AuditEntry struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CaseID      *string           `gorm:"type:varchar(36);index" json:"case_id"`
	ActorUserID *string           `gorm:"type:varchar(64)" json:"actor_user_id"`
	Action      string            `gorm:"type:varchar(32);not null;index" json:"action"`
	Meta        datatypes.JSONMap `json:"meta"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (AuditEntry) TableName() string { return "audit_log" }
