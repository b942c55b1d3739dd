package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const userColumns = "id, telegram_id, username, first_name, last_name, joined_date"

// UpsertUser creates a user on first contact or refreshes display names on
// subsequent ones.
func (s *Store) UpsertUser(ctx context.Context, telegramID, username, firstName, lastName string) (*User, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return nil, errors.New("telegram id is required")
	}

	existing, err := s.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		_, err := s.db.ExecContext(
			ctx,
			`INSERT INTO users (telegram_id, username, first_name, last_name, joined_date)
             VALUES (?, ?, ?, ?, ?)`,
			telegramID,
			nullableString(username),
			nullableString(firstName),
			nullableString(lastName),
			timestamp(time.Now()),
		)
		if err != nil {
			return nil, fmt.Errorf("insert user: %w", err)
		}
		return s.GetUserByTelegramID(ctx, telegramID)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE users SET username = ?, first_name = ?, last_name = ? WHERE telegram_id = ?`,
		nullableString(username),
		nullableString(firstName),
		nullableString(lastName),
		telegramID,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetUserByTelegramID(ctx, telegramID)
}

// GetUserByTelegramID fetches a user by their chat-platform identifier.
// Returns nil when no such user exists.
func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var (
		id         int64
		telegramID string
		username   sql.NullString
		firstName  sql.NullString
		lastName   sql.NullString
		joinedRaw  sql.NullString
	)
	if err := scanner.Scan(&id, &telegramID, &username, &firstName, &lastName, &joinedRaw); err != nil {
		return nil, err
	}

	user := &User{
		ID:         id,
		TelegramID: telegramID,
		Username:   username.String,
		FirstName:  firstName.String,
		LastName:   lastName.String,
	}
	if joined, err := parseTimeString(joinedRaw.String); err == nil {
		user.JoinedDate = joined
	}
	return user, nil
}
