package models

import (
	"time"

	"github.com/Skotchmaster/gig_board/internal/domain"
)

type GigType string

const (
	GigTypeOddJob     GigType = "ODD_JOB"
	GigTypeMarketSpot GigType = "MARKET_SPOT"
)

func (t GigType) Valid() bool {
	return t == GigTypeOddJob || t == GigTypeMarketSpot
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"       json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	Bio          string    `json:"bio"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Gig rows are never removed; DELETED is a status.
type Gig struct {
	ID          uint             `gorm:"primaryKey;autoIncrement"        json:"id"`
	Title       string           `gorm:"not null"                        json:"title"`
	GigType     GigType          `gorm:"not null;index"                  json:"gig_type"`
	Suburb      string           `gorm:"not null;index"                  json:"suburb"`
	Details     string           `gorm:"not null"                        json:"details"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Status      domain.GigStatus `gorm:"not null;index"                  json:"status"`
	ReportCount int              `gorm:"not null;check:report_count >= 0" json:"report_count"`
	CreatedAt   time.Time        `gorm:"index"                           json:"created_at"`
	OwnerID     uint             `gorm:"index;not null"                  json:"owner_id"`
	Owner       User             `gorm:"foreignKey:OwnerID"              json:"-"`
	ClientIP    string           `json:"-"`
}

func (g *Gig) State() domain.GigState {
	return domain.GigState{
		OwnerID:     g.OwnerID,
		Status:      g.Status,
		ReportCount: g.ReportCount,
		CreatedAt:   g.CreatedAt,
	}
}

func (g *Gig) Apply(s domain.GigState) {
	g.OwnerID = s.OwnerID
	g.Status = s.Status
	g.ReportCount = s.ReportCount
	g.CreatedAt = s.CreatedAt
}

type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	GigID     uint      `gorm:"index;not null"           json:"gig_id"`
	SenderID  uint      `gorm:"index;not null"           json:"sender_id"`
	Content   string    `gorm:"not null"                 json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"            json:"id"`
	GigID      uint      `gorm:"index;not null"                      json:"gig_id"`
	ReviewerID uint      `gorm:"index;not null"                      json:"reviewer_id"`
	RevieweeID uint      `gorm:"index;not null"                      json:"reviewee_id"`
	Rating     int       `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}
