package service

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Task field bounds.
const (
	TitleMinLen = 2
	TitleMaxLen = 100

	UsernameMinLen = 3
	PasswordMinLen = 8
)

// FieldError is a constraint violation on a single field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects field errors found before any network call.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message for field, or "" if the field is valid.
func (e *ValidationError) Field(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

type validator struct {
	fields []FieldError
}

func (v *validator) add(field, msg string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

func (v *validator) title(title string) {
	n := utf8.RuneCountInString(title)
	switch {
	case strings.TrimSpace(title) == "":
		v.add("title", "Title is required")
	case n < TitleMinLen:
		v.add("title", "Title is too short")
	case n > TitleMaxLen:
		v.add("title", "Title is too long")
	}
}

func (v *validator) status(s Status) {
	if s == "" {
		v.add("status", "Status is required")
	} else if !s.Valid() {
		v.add("status", "Status must be one of Pending, In Progress, Completed")
	}
}

func (v *validator) dueDate(d Date, now time.Time) {
	if d.IsZero() {
		v.add("duedate", "Due date is required")
	} else if d.Before(now) {
		v.add("duedate", "Due date must be in the future")
	}
}

// ValidateTask checks a full task (create or edit form) against now.
func ValidateTask(t Task, now time.Time) error {
	var v validator
	v.title(t.Title)
	v.status(t.Status)
	v.dueDate(t.DueDate, now)
	return v.err()
}

// ValidateUpdate checks only the fields present in upd.
func ValidateUpdate(upd TaskUpdate, now time.Time) error {
	var v validator
	if upd.Title != nil {
		v.title(*upd.Title)
	}
	if upd.Status != nil {
		v.status(*upd.Status)
	}
	if upd.DueDate != nil {
		v.dueDate(*upd.DueDate, now)
	}
	if upd.Title == nil && upd.Description == nil && upd.Status == nil && upd.DueDate == nil {
		v.add("task", "No fields to update")
	}
	return v.err()
}

// ValidateCredentials checks the login form.
func ValidateCredentials(c Credentials) error {
	var v validator
	if strings.TrimSpace(c.Username) == "" {
		v.add("username", "Username or Email is required")
	}
	if c.Password == "" {
		v.add("password", "Password is required")
	}
	return v.err()
}

// ValidateRegistration checks the signup form, including the password confirmation.
func ValidateRegistration(r Registration, confirm string) error {
	var v validator
	if strings.TrimSpace(r.Email) == "" {
		v.add("email", "Email is required")
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		v.add("email", "Invalid email")
	}
	if r.Username == "" {
		v.add("username", "Username is required")
	} else if utf8.RuneCountInString(r.Username) < UsernameMinLen {
		v.add("username", "Username must be at least 3 characters")
	}
	if r.Password == "" {
		v.add("password", "Password is required")
	} else if utf8.RuneCountInString(r.Password) < PasswordMinLen {
		v.add("password", "Password must be at least 8 characters")
	}
	if confirm == "" {
		v.add("confirmPassword", "Please confirm your password")
	} else if confirm != r.Password {
		v.add("confirmPassword", "Passwords must match")
	}
	return v.err()
}
