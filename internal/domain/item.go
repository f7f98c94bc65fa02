// Package domain defines the persistence models for item reports, pairwise
// comparisons, confirmed matches and notifications. These types are mapped
// with GORM and form the core data layer of the lost-and-found backend.
package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ReportKind tells whether an item report describes something lost or found.
type ReportKind string

const (
	KindLost  ReportKind = "Lost"
	KindFound ReportKind = "Found"
)

// ParseReportKind maps any casing of "lost"/"found" to a ReportKind.
// The second return value is false for anything else.
func ParseReportKind(s string) (ReportKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lost":
		return KindLost, true
	case "found":
		return KindFound, true
	}
	return "", false
}

// Item lifecycle states.
const (
	StatusActive   = "active"
	StatusReturned = "returned"
	StatusClosed   = "closed"
)

// DateLayout is the calendar-date format used for ItemReport.Date.
const DateLayout = "2006-01-02"

// ItemReport is a single lost or found report submitted by a user.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - LostOrFound: "Lost" or "Found". Comparisons elsewhere are case-insensitive.
//   - Date: calendar date of loss/finding (YYYY-MM-DD); Time is optional.
//   - Category / Subcategory / SubSubcategory: taxonomy placement. Category and
//     Subcategory are always populated before matching runs.
//   - Attributes: structured description extracted from free text.
//   - UserID: the submitting user, who receives match notifications.
type ItemReport struct {
	ID             string                             `json:"id"              gorm:"type:char(36);primaryKey"`
	LostOrFound    string                             `json:"lost_or_found"   gorm:"type:varchar(8);not null;index:idx_items_pool,priority:3"`
	Title          string                             `json:"title"           gorm:"type:varchar(255);not null"`
	Description    string                             `json:"description"     gorm:"type:text;not null"`
	Location       string                             `json:"location"        gorm:"type:varchar(255)"`
	Date           string                             `json:"date"            gorm:"type:varchar(10);not null;index:idx_items_pool,priority:4"`
	Time           string                             `json:"time,omitempty"  gorm:"type:varchar(8)"`
	Category       string                             `json:"category"        gorm:"type:varchar(64);not null;index:idx_items_pool,priority:1"`
	Subcategory    string                             `json:"subcategory"     gorm:"type:varchar(64);not null;index:idx_items_pool,priority:2"`
	SubSubcategory string                             `json:"sub_subcategory" gorm:"type:varchar(64)"`
	Attributes     datatypes.JSONType[AttributeRecord] `json:"attributes"`
	UserID         string                             `json:"user_id"         gorm:"type:varchar(64);not null;index:idx_user_items"`
	Status         string                             `json:"status"          gorm:"type:varchar(16);not null;default:'active';index"`
	CreatedAt      time.Time                          `json:"created_at"      gorm:"index:idx_user_items"`
	UpdatedAt      time.Time                          `json:"updated_at"`
}

// TableName returns the database table name for ItemReport.
func (ItemReport) TableName() string { return "items" }

// Kind returns the parsed report kind. ok is false when LostOrFound holds
// neither "lost" nor "found".
func (it ItemReport) Kind() (kind ReportKind, ok bool) { return ParseReportKind(it.LostOrFound) }

// Day parses Date as a calendar date in UTC.
func (it ItemReport) Day() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(it.Date))
}

// Attrs returns the item's attribute record.
func (it ItemReport) Attrs() AttributeRecord { return it.Attributes.Data() }

// SetAttrs replaces the item's attribute record.
func (it *ItemReport) SetAttrs(a AttributeRecord) { it.Attributes = datatypes.NewJSONType(a) }
