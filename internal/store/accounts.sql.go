package store

import (
	"context"
	"time"
)

const accountColumns = `id, email, password_hash, created_at, last_login_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (Account, error) {
	var i Account
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.LastLoginAt)
	return i, err
}

type CreateAccountParams struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

const createAccount = `INSERT INTO accounts (id, email, password_hash, created_at)
VALUES (?, ?, ?, ?)
RETURNING ` + accountColumns

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	return scanAccount(q.queryRow(ctx, createAccount, arg.ID, arg.Email, arg.PasswordHash, arg.CreatedAt))
}

const getAccountByEmail = `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(q.queryRow(ctx, getAccountByEmail, email))
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *Queries) GetAccount(ctx context.Context, id string) (Account, error) {
	return scanAccount(q.queryRow(ctx, getAccount, id))
}

const updateAccountLastLogin = `UPDATE accounts SET last_login_at = ? WHERE id = ?`

func (q *Queries) UpdateAccountLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := q.exec(ctx, updateAccountLastLogin, at, id)
	return err
}

const updateAccountPassword = `UPDATE accounts SET password_hash = ? WHERE id = ?`

func (q *Queries) UpdateAccountPassword(ctx context.Context, id, passwordHash string) error {
	_, err := q.exec(ctx, updateAccountPassword, passwordHash, id)
	return err
}

const profileColumns = `id, email, full_name, role, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (Profile, error) {
	var i Profile
	err := row.Scan(&i.ID, &i.Email, &i.FullName, &i.Role, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type CreateProfileParams struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const createProfile = `INSERT INTO profiles (id, email, full_name, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + profileColumns

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	return scanProfile(q.queryRow(ctx, createProfile,
		arg.ID,
		arg.Email,
		arg.FullName,
		arg.Role,
		arg.CreatedAt,
		arg.UpdatedAt,
	))
}

const getProfile = `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

func (q *Queries) GetProfile(ctx context.Context, id string) (Profile, error) {
	return scanProfile(q.queryRow(ctx, getProfile, id))
}

const listProfiles = `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

func (q *Queries) ListProfiles(ctx context.Context, limit, offset int64) ([]Profile, error) {
	rows, err := q.query(ctx, listProfiles, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Profile
	for rows.Next() {
		i, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countProfiles = `SELECT COUNT(*) FROM profiles`

func (q *Queries) CountProfiles(ctx context.Context) (int64, error) {
	var count int64
	err := q.queryRow(ctx, countProfiles).Scan(&count)
	return count, err
}

const updateProfileRole = `UPDATE profiles SET role = ?, updated_at = ? WHERE id = ?
RETURNING ` + profileColumns

func (q *Queries) UpdateProfileRole(ctx context.Context, id, role string, now time.Time) (Profile, error) {
	return scanProfile(q.queryRow(ctx, updateProfileRole, role, now, id))
}

const updateProfileName = `UPDATE profiles SET full_name = ?, updated_at = ? WHERE id = ?
RETURNING ` + profileColumns

func (q *Queries) UpdateProfileName(ctx context.Context, id, fullName string, now time.Time) (Profile, error) {
	return scanProfile(q.queryRow(ctx, updateProfileName, fullName, now, id))
}

const deleteAccount = `DELETE FROM accounts WHERE id = ?`

// DeleteAccount removes the account; its profile goes with it.
func (q *Queries) DeleteAccount(ctx context.Context, id string) (int64, error) {
	result, err := q.exec(ctx, deleteAccount, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countProfilesByRole = `SELECT COUNT(*) FROM profiles WHERE role = ?`

func (q *Queries) CountProfilesByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := q.queryRow(ctx, countProfilesByRole, role).Scan(&count)
	return count, err
}
