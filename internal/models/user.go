package models

import (
	"time"
)

// Role names
const (
	RoleMember = "member"
	RoleAuthor = "author"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
)

// ValidRoles defines allowed user roles
var ValidRoles = map[string]bool{
	RoleMember: true,
	RoleAuthor: true,
	RoleEditor: true,
	RoleAdmin:  true,
	RoleStaff:  true,
}

// User represents an account: clients, authors, staff and administrators
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Firstname    string     `json:"firstname" db:"firstname"`
	Lastname     string     `json:"lastname" db:"lastname"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	Phone        string     `json:"phone,omitempty" db:"phone"`
	CompanyName  string     `json:"company_name,omitempty" db:"company_name"`
	AvatarURL    string     `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio          string     `json:"bio,omitempty" db:"bio"`
	IsTeamMember bool       `json:"is_team_member" db:"is_team_member"`
	TeamPosition string     `json:"team_position,omitempty" db:"team_position"`
	TeamOrder    int        `json:"team_order" db:"team_order"`
	LinkedinURL  string     `json:"linkedin_url,omitempty" db:"linkedin_url"`
	TwitterURL   string     `json:"twitter_url,omitempty" db:"twitter_url"`
	GithubURL    string     `json:"github_url,omitempty" db:"github_url"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	switch {
	case u.Firstname == "":
		return u.Lastname
	case u.Lastname == "":
		return u.Firstname
	}
	return u.Firstname + " " + u.Lastname
}

// HasRole reports whether the user holds one of the given roles
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// TeamMember is the public view of a team member
type TeamMember struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Firstname     string    `json:"firstname"`
	Lastname      string    `json:"lastname"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	TeamPosition  string    `json:"team_position,omitempty"`
	TeamOrder     int       `json:"team_order"`
	LinkedinURL   string    `json:"linkedin_url,omitempty"`
	TwitterURL    string    `json:"twitter_url,omitempty"`
	GithubURL     string    `json:"github_url,omitempty"`
	ArticlesCount int       `json:"articles_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// TeamMemberProfile is a team member with their latest published articles
type TeamMemberProfile struct {
	TeamMember
	RecentArticles []ArticleSummary `json:"recent_articles"`
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Firstname   string `json:"firstname" binding:"required,max=100"`
	Lastname    string `json:"lastname" binding:"required,max=100"`
	Phone       string `json:"phone" binding:"omitempty,max=50"`
	CompanyName string `json:"company_name" binding:"omitempty,max=255"`
}

// LoginRequest is the payload for password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// LoginAttempt is one row of the login audit trail
type LoginAttempt struct {
	Email     string
	IPAddress string
	UserAgent string
	Success   bool
}

// PasswordResetToken is a single-use reset token
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
}

// ProfileUpdate holds the self-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Firstname   *string `json:"firstname" binding:"omitempty,max=100"`
	Lastname    *string `json:"lastname" binding:"omitempty,max=100"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
	CompanyName *string `json:"company_name" binding:"omitempty,max=255"`
	Bio         *string `json:"bio"`
	LinkedinURL *string `json:"linkedin_url" binding:"omitempty,url"`
	TwitterURL  *string `json:"twitter_url" binding:"omitempty,url"`
	GithubURL   *string `json:"github_url" binding:"omitempty,url"`
}

// TeamUpdate holds the admin-editable team fields
type TeamUpdate struct {
	ProfileUpdate
	IsTeamMember *bool   `json:"is_team_member"`
	TeamPosition *string `json:"team_position" binding:"omitempty,max=255"`
	TeamOrder    *int    `json:"team_order"`
	Role         *string `json:"role" binding:"omitempty,oneof=member author editor admin staff"`
	IsActive     *bool   `json:"is_active"`
}
