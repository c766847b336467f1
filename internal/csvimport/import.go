package csvimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"planbook/internal/auth"
	"planbook/internal/entity"
	"planbook/internal/repository"
)

// Header is the required first line of an import file.
var Header = []string{"first_name", "last_name", "email", "password", "role"}

// UserCreator is the write surface for imported accounts.
type UserCreator interface {
	Create(ctx context.Context, u *entity.User) (int, error)
}

// RowError records why one line was rejected. Line numbers count from
// 1, header included.
type RowError struct {
	Line    int
	Message string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Summary is the result of one import run.
type Summary struct {
	Imported int
	Errors   []RowError
}

// ImportUsers reads a CSV of accounts and creates the valid rows.
// Invalid rows are accumulated per line and do not stop the run; only
// an unreadable file or a bad header aborts.
func ImportUsers(ctx context.Context, r io.Reader, users UserCreator) (*Summary, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !validHeader(header) {
		return nil, fmt.Errorf("expected header %s", strings.Join(Header, ","))
	}

	summary := &Summary{}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Line: line, Message: "malformed row"})
			continue
		}

		user, password, rowErr := parseRow(record)
		if rowErr != "" {
			summary.Errors = append(summary.Errors, RowError{Line: line, Message: rowErr})
			continue
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Line: line, Message: "could not hash password"})
			continue
		}
		user.PasswordHash = hash

		if _, err := users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				summary.Errors = append(summary.Errors, RowError{Line: line, Message: "email already in use"})
			} else {
				summary.Errors = append(summary.Errors, RowError{Line: line, Message: "could not create user"})
			}
			continue
		}
		summary.Imported++
	}

	return summary, nil
}

func validHeader(cols []string) bool {
	if len(cols) != len(Header) {
		return false
	}
	for i, want := range Header {
		if strings.TrimSpace(strings.ToLower(cols[i])) != want {
			return false
		}
	}
	return true
}

func parseRow(record []string) (*entity.User, string, string) {
	if len(record) != len(Header) {
		return nil, "", "wrong number of fields"
	}
	first := strings.TrimSpace(record[0])
	last := strings.TrimSpace(record[1])
	email := strings.TrimSpace(record[2])
	password := record[3]
	roleField := record[4]

	if first == "" || last == "" {
		return nil, "", "first and last name are required"
	}
	if !auth.ValidEmail(email) {
		return nil, "", "invalid email address"
	}
	if len(password) < auth.MinPasswordLen {
		return nil, "", "password must be at least 8 characters"
	}
	role, err := entity.ParseRole(roleField)
	if err != nil {
		return nil, "", "unknown role"
	}

	return &entity.User{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Role:      role,
		Status:    entity.StatusActive,
	}, password, ""
}
