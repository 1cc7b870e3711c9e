package store

import (
	"context"
	"strings"

	"indorunners-backend-go/internal/models"
)

const userColumns = `id, email, name, password_hash, role, phone, birth_date, gender,
  emergency_contact, emergency_phone, created_at, updated_at`

func (q *Queries) InsertUser(ctx context.Context, u models.User) error {
	_, err := q.exec(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.Phone, normalizePtr(u.BirthDate), u.Gender,
		u.EmergencyContact, u.EmergencyPhone, normalize(u.CreatedAt), normalize(u.UpdatedAt))
	return wrap("insert user", err)
}

func (q *Queries) FindUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return u, wrap("find user", err)
}

func (q *Queries) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, models.NormalizeEmail(email))
	return u, wrap("find user by email", err)
}

func (q *Queries) CountUsersByRole(ctx context.Context, role models.Role) (int, error) {
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = ?`, string(role))
	return n, wrap("count users", err)
}

type UserFilter struct {
	// Search matches a substring of the email or the name.
	Search string
	Role   *models.Role
	Limit  int
	Offset int
}

func userWhere(f UserFilter) (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		where = append(where, "(lower(email) LIKE ? OR lower(name) LIKE ?)")
		args = append(args, "%"+term+"%", "%"+term+"%")
	}
	if f.Role != nil {
		where = append(where, "role = ?")
		args = append(args, string(*f.Role))
	}
	return strings.Join(where, " AND "), args
}

// ListUsers returns one page of users, newest first, and the total number
// of users matching the filter.
func (q *Queries) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int, error) {
	where, args := userWhere(f)
	var total int
	if err := q.get(ctx, &total, `SELECT COUNT(*) FROM users WHERE `+where, args...); err != nil {
		return nil, 0, wrap("count users", err)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	items := []models.User{}
	err := q.selectAll(ctx, &items, query, args...)
	return items, total, wrap("list users", err)
}
