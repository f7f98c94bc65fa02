package domain

import "time"

// Confidence is the qualitative label attached to a similarity score.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidencePossible Confidence = "possible"
	ConfidenceUnlikely Confidence = "unlikely"
)

// Qualifies reports whether a pair with this confidence should be notified.
func (c Confidence) Qualifies() bool {
	return c == ConfidenceHigh || c == ConfidencePossible
}

// Notification receiver roles.
const (
	RoleLostOwner  = "lost_owner"
	RoleFoundOwner = "found_owner"
)

// ComparisonRecord is the ledger row proving a lost/found pair has been
// scored. MatchID is the order-independent pair key and the primary key, so
// repeated writes for the same pair converge on one row.
type ComparisonRecord struct {
	MatchID       string    `json:"match_id"      gorm:"type:varchar(80);primaryKey"`
	LostID        string    `json:"lost_id"       gorm:"type:char(36);not null;index"`
	FoundID       string    `json:"found_id"      gorm:"type:char(36);not null;index"`
	Compared      bool      `json:"compared"      gorm:"not null;default:true"`
	MatchScore    int       `json:"match_score"   gorm:"not null;check:match_score BETWEEN 0 AND 100"`
	Justification string    `json:"justification" gorm:"type:varchar(1024)"`
	Matched       bool      `json:"matched"       gorm:"not null"`
	ComparedAt    time.Time `json:"compared_at"   gorm:"not null"`
}

// TableName returns the database table name for ComparisonRecord.
func (ComparisonRecord) TableName() string { return "match_attempts" }

// ConfirmedMatch is created once per qualifying pair. The unique MatchID
// keeps retried or concurrent notifications from producing duplicates.
type ConfirmedMatch struct {
	ID            string     `json:"id"            gorm:"type:char(36);primaryKey"`
	MatchID       string     `json:"match_id"      gorm:"type:varchar(80);not null;uniqueIndex:ux_confirmed_match_pair"`
	LostID        string     `json:"lost_id"       gorm:"type:char(36);not null;index"`
	FoundID       string     `json:"found_id"      gorm:"type:char(36);not null;index"`
	Similarity    int        `json:"similarity"    gorm:"not null"`
	Confidence    Confidence `json:"confidence"    gorm:"type:varchar(16);not null"`
	Justification string     `json:"justification" gorm:"type:varchar(1024)"`
	ChatStarted   bool       `json:"chat_started"  gorm:"not null;default:false"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TableName returns the database table name for ConfirmedMatch.
func (ConfirmedMatch) TableName() string { return "confirmed_matches" }

// Notification tells one owner about a confirmed match. Every ConfirmedMatch
// has exactly two: one per ReceiverRole.
type Notification struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	MatchID       string     `json:"match_id"       gorm:"type:varchar(80);not null;uniqueIndex:ux_notification_match_role,priority:1"`
	ReceiverID    string     `json:"receiver_id"    gorm:"type:varchar(64);not null;index:idx_notifications_inbox,priority:1"`
	ReceiverRole  string     `json:"receiver_role"  gorm:"type:varchar(16);not null;uniqueIndex:ux_notification_match_role,priority:2;check:receiver_role IN ('lost_owner','found_owner')"`
	LostItemID    string     `json:"lost_item_id"   gorm:"type:char(36);not null"`
	FoundItemID   string     `json:"found_item_id"  gorm:"type:char(36);not null"`
	Similarity    int        `json:"similarity"     gorm:"not null"`
	Confidence    Confidence `json:"confidence"     gorm:"type:varchar(16);not null"`
	Justification string     `json:"justification"  gorm:"type:varchar(1024)"`
	Read          bool       `json:"read"           gorm:"column:is_read;not null;default:false;index:idx_notifications_inbox,priority:2"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// JobLease is a named, expiring mutual-exclusion record for batch jobs that
// must not overlap across processes (e.g. the full matching sweep).
type JobLease struct {
	Name       string    `gorm:"type:varchar(64);primaryKey"`
	OwnerID    string    `gorm:"type:varchar(64);not null"`
	AcquiredAt time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for JobLease.
func (JobLease) TableName() string { return "job_leases" }
