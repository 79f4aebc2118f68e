package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// timeLayout is fixed-width so that lexical order of stored values matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var selectColumns = strings.Join(model.Columns(), ", ")

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
type CredentialRepo struct {
	db  *DB
	now func() time.Time
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db, now: time.Now}
}

// List returns the owner's credentials ordered by updated_at descending.
func (r *CredentialRepo) List(ctx context.Context, ownerID string) ([]model.Credential, error) {
	query := `SELECT ` + selectColumns + ` FROM api_keys WHERE owner_id = ? ORDER BY updated_at DESC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, storageErr("list credentials", err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, storageErr("scan credential", err)
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate credentials", err)
	}

	return creds, nil
}

// Get returns the credential with the given id if it belongs to ownerID.
func (r *CredentialRepo) Get(ctx context.Context, id, ownerID string) (model.Credential, error) {
	return r.get(ctx, r.db.Reader, id, ownerID)
}

// Insert stores a new credential with a freshly minted id and timestamps.
func (r *CredentialRepo) Insert(ctx context.Context, cred model.Credential) (model.Credential, error) {
	now := r.now().UTC()
	cred.ID = uuid.NewString()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(model.FieldMappings)), ", ")
	query := `INSERT INTO api_keys (` + selectColumns + `) VALUES (` + placeholders + `)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		cred.ID,
		cred.Name,
		cred.SecretValue,
		cred.BaseURL,
		cred.Model,
		cred.Description,
		cred.Category,
		cred.IsActive,
		cred.OwnerID,
		formatTime(cred.CreatedAt),
		formatTime(cred.UpdatedAt),
	)
	if err != nil {
		return model.Credential{}, storageErr("insert credential", err)
	}

	return cred, nil
}

// Update merges patch over the owned row and refreshes updated_at. The read
// and the write share one transaction on the writer connection.
func (r *CredentialRepo) Update(ctx context.Context, id, ownerID string, patch model.CredentialPatch) (model.Credential, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Credential{}, storageErr("begin update", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := r.get(ctx, tx, id, ownerID)
	if err != nil {
		return model.Credential{}, err
	}

	updated := patch.Apply(existing)
	updated.UpdatedAt = existing.NextUpdatedAt(r.now().UTC())

	sets, args, err := patchAssignments(patch)
	if err != nil {
		return model.Credential{}, err
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(updated.UpdatedAt), id, ownerID)

	query := `UPDATE api_keys SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND owner_id = ?`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return model.Credential{}, storageErr("update credential "+id, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Credential{}, storageErr("commit update", err)
	}

	return updated, nil
}

// Delete removes the owned row. Returns ErrCredentialNotFound if nothing matched.
func (r *CredentialRepo) Delete(ctx context.Context, id, ownerID string) error {
	const query = `DELETE FROM api_keys WHERE id = ? AND owner_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return storageErr("delete credential "+id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete credential %s: %w", id, driven.ErrCredentialNotFound)
	}

	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *CredentialRepo) get(ctx context.Context, q queryer, id, ownerID string) (model.Credential, error) {
	query := `SELECT ` + selectColumns + ` FROM api_keys WHERE id = ? AND owner_id = ?`

	cred, err := scanCredential(q.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Credential{}, fmt.Errorf("get credential %s: %w", id, driven.ErrCredentialNotFound)
	}
	if err != nil {
		return model.Credential{}, storageErr("get credential "+id, err)
	}

	return cred, nil
}

// patchAssignments translates the set patch fields into "column = ?" clauses
// using the wire/storage mapping table.
func patchAssignments(p model.CredentialPatch) ([]string, []any, error) {
	var sets []string
	var args []any

	for _, field := range p.Fields() {
		col, ok := model.ColumnForField(field)
		if !ok {
			return nil, nil, fmt.Errorf("no column for field %q", field)
		}

		var v any
		switch field {
		case model.FieldName:
			v = *p.Name
		case model.FieldSecretValue:
			v = *p.SecretValue
		case model.FieldBaseURL:
			v = *p.BaseURL
		case model.FieldModel:
			v = *p.Model
		case model.FieldDescription:
			v = *p.Description
		case model.FieldCategory:
			v = *p.Category
		case model.FieldIsActive:
			v = *p.IsActive
		}

		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	return sets, args, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanCredential scans one row selected with selectColumns.
func scanCredential(s scanner) (model.Credential, error) {
	var cred model.Credential
	var createdAt, updatedAt string

	err := s.Scan(
		&cred.ID,
		&cred.Name,
		&cred.SecretValue,
		&cred.BaseURL,
		&cred.Model,
		&cred.Description,
		&cred.Category,
		&cred.IsActive,
		&cred.OwnerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Credential{}, err
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Credential{}, fmt.Errorf("parse created_at: %w", err)
	}

	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Credential{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return cred, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, driven.ErrStorageUnavailable, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime tries the storage layout first, then other SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
