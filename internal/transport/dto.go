package transport

import (
	"time"

	"github.com/Skotchmaster/gig_board/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
	Password string `json:"password"`
}

// TokenRequest accepts both a JSON body and an OAuth2 password form.
type TokenRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Bio: u.Bio}
}

type CreateGigRequest struct {
	Title    string  `json:"title"`
	GigType  string  `json:"gig_type"`
	Suburb   string  `json:"suburb"`
	Details  string  `json:"details"`
	ImageURL *string `json:"image_url"`
}

type GigResponse struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	GigType       string    `json:"gig_type"`
	Suburb        string    `json:"suburb"`
	Details       string    `json:"details"`
	ImageURL      *string   `json:"image_url"`
	Status        string    `json:"status"`
	ReportCount   int       `json:"report_count"`
	CreatedAt     time.Time `json:"created_at"`
	OwnerID       uint      `json:"owner_id"`
	OwnerUsername string    `json:"owner_username"`
}

func NewGigResponse(g *models.Gig) GigResponse {
	return GigResponse{
		ID:            g.ID,
		Title:         g.Title,
		GigType:       string(g.GigType),
		Suburb:        g.Suburb,
		Details:       g.Details,
		ImageURL:      g.ImageURL,
		Status:        string(g.Status),
		ReportCount:   g.ReportCount,
		CreatedAt:     g.CreatedAt,
		OwnerID:       g.OwnerID,
		OwnerUsername: g.Owner.Username,
	}
}

func NewGigList(items []models.Gig) []GigResponse {
	out := make([]GigResponse, 0, len(items))
	for i := range items {
		out = append(out, NewGigResponse(&items[i]))
	}
	return out
}

type MessageRequest struct {
	Content string `json:"content"`
}

type MessageResponse struct {
	ID        uint      `json:"id"`
	GigID     uint      `json:"gig_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{ID: m.ID, GigID: m.GigID, SenderID: m.SenderID, Content: m.Content, CreatedAt: m.CreatedAt}
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewResponse struct {
	ID         uint      `json:"id"`
	GigID      uint      `json:"gig_id"`
	ReviewerID uint      `json:"reviewer_id"`
	RevieweeID uint      `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewReviewResponse(rv *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:         rv.ID,
		GigID:      rv.GigID,
		ReviewerID: rv.ReviewerID,
		RevieweeID: rv.RevieweeID,
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		CreatedAt:  rv.CreatedAt,
	}
}

type MessageResult struct {
	Message string `json:"message"`
}
