package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
)

const userColumns = `id, email, username, password_hash, firstname, lastname, role, is_active,
	phone, company_name, avatar_url, bio, is_team_member, team_position, team_order,
	linkedin_url, twitter_url, github_url, last_login, created_at, updated_at`

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var phone, company, avatar, bio, position, linkedin, twitter, github sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Firstname, &u.Lastname, &u.Role, &u.IsActive,
		&phone, &company, &avatar, &bio, &u.IsTeamMember, &position, &u.TeamOrder,
		&linkedin, &twitter, &github, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Phone = phone.String
	u.CompanyName = company.String
	u.AvatarURL = avatar.String
	u.Bio = bio.String
	u.TeamPosition = position.String
	u.LinkedinURL = linkedin.String
	u.TwitterURL = twitter.String
	u.GithubURL = github.String
	u.LastLogin = timePtr(lastLogin)
	return &u, nil
}

func (r *userRepo) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// Create inserts a new user and fills in its generated id and timestamps
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, firstname, lastname, role, is_active, phone, company_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Firstname, user.Lastname,
		user.Role, user.IsActive, nullString(user.Phone), nullString(user.CompanyName),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by lower-cased email
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

// GetByUsername retrieves a user by username
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

// UsernameExists checks if a username is taken
func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists)
	return exists, err
}

// UpdateLastLogin stamps a successful login
func (r *userRepo) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", time.Now(), id)
	return err
}

// UpdateProfile applies the non-nil fields of update
func (r *userRepo) UpdateProfile(ctx context.Context, id string, update *models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			firstname = COALESCE($1, firstname),
			lastname = COALESCE($2, lastname),
			phone = COALESCE($3, phone),
			company_name = COALESCE($4, company_name),
			bio = COALESCE($5, bio),
			linkedin_url = COALESCE($6, linkedin_url),
			twitter_url = COALESCE($7, twitter_url),
			github_url = COALESCE($8, github_url),
			updated_at = NOW()
		WHERE id = $9
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query,
		update.Firstname, update.Lastname, update.Phone, update.CompanyName,
		update.Bio, update.LinkedinURL, update.TwitterURL, update.GithubURL, id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return user, err
}

// UpdateTeam applies admin-level team and account fields
func (r *userRepo) UpdateTeam(ctx context.Context, id string, update *models.TeamUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			firstname = COALESCE($1, firstname),
			lastname = COALESCE($2, lastname),
			bio = COALESCE($3, bio),
			linkedin_url = COALESCE($4, linkedin_url),
			twitter_url = COALESCE($5, twitter_url),
			github_url = COALESCE($6, github_url),
			is_team_member = COALESCE($7, is_team_member),
			team_position = COALESCE($8, team_position),
			team_order = COALESCE($9, team_order),
			role = COALESCE($10, role),
			is_active = COALESCE($11, is_active),
			updated_at = NOW()
		WHERE id = $12
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query,
		update.Firstname, update.Lastname, update.Bio,
		update.LinkedinURL, update.TwitterURL, update.GithubURL,
		update.IsTeamMember, update.TeamPosition, update.TeamOrder, update.Role, update.IsActive, id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return user, err
}

// UpdateAvatar replaces the avatar URL
func (r *userRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET avatar_url = $1, updated_at = NOW() WHERE id = $2", nullString(avatarURL), id)
	return affectedOrNotFound(res, err)
}

// ListTeam returns active team members ordered for display
func (r *userRepo) ListTeam(ctx context.Context) ([]models.TeamMember, error) {
	query := `
		SELECT u.id, u.username, u.firstname, u.lastname, u.avatar_url, u.bio, u.team_position, u.team_order,
			u.linkedin_url, u.twitter_url, u.github_url, u.created_at,
			(SELECT COUNT(*) FROM articles a WHERE a.author_id = u.id AND a.status = 'published')
		FROM users u
		WHERE u.is_team_member = TRUE AND u.is_active = TRUE
		ORDER BY u.team_order, u.created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func scanTeamMember(row rowScanner) (*models.TeamMember, error) {
	var m models.TeamMember
	var avatar, bio, position, linkedin, twitter, github sql.NullString
	err := row.Scan(
		&m.ID, &m.Username, &m.Firstname, &m.Lastname, &avatar, &bio, &position, &m.TeamOrder,
		&linkedin, &twitter, &github, &m.CreatedAt, &m.ArticlesCount,
	)
	if err != nil {
		return nil, err
	}
	m.AvatarURL = avatar.String
	m.Bio = bio.String
	m.TeamPosition = position.String
	m.LinkedinURL = linkedin.String
	m.TwitterURL = twitter.String
	m.GithubURL = github.String
	return &m, nil
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
