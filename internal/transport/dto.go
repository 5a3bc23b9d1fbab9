package transport

import (
	"net/mail"
	"unicode/utf8"
)

// FieldError is a single invalid field with a caller-facing reason.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type RegisterRequest struct {
	Email    string `json:"email"    form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r *RegisterRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := mail.ParseAddress(r.Email); err != nil || utf8.RuneCountInString(r.Email) > 120 {
		errs = append(errs, FieldError{Field: "email", Reason: "invalid email"})
	}
	if n := utf8.RuneCountInString(r.Username); n < 2 || n > 40 {
		errs = append(errs, FieldError{Field: "username", Reason: "must be 2-40 characters"})
	}
	if n := utf8.RuneCountInString(r.Password); n < 6 || n > 64 {
		errs = append(errs, FieldError{Field: "password", Reason: "must be 6-64 characters"})
	}
	return errs
}

type LoginRequest struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

// CarForm carries the full set of listing fields; create and edit
// both resupply every scalar field (no partial updates).
type CarForm struct {
	Title       string `json:"title"       form:"title"`
	Brand       string `json:"brand"       form:"brand"`
	Model       string `json:"model"       form:"model"`
	Year        int    `json:"year"        form:"year"`
	MileageKM   int    `json:"mileage_km"  form:"mileage_km"`
	Price       int    `json:"price"       form:"price"`
	City        string `json:"city"        form:"city"`
	Description string `json:"description" form:"description"`
}

func (f *CarForm) Validate() []FieldError {
	var errs []FieldError
	if n := utf8.RuneCountInString(f.Title); n == 0 || n > 120 {
		errs = append(errs, FieldError{Field: "title", Reason: "required, at most 120 characters"})
	}
	if n := utf8.RuneCountInString(f.Brand); n == 0 || n > 40 {
		errs = append(errs, FieldError{Field: "brand", Reason: "required, at most 40 characters"})
	}
	if n := utf8.RuneCountInString(f.Model); n == 0 || n > 60 {
		errs = append(errs, FieldError{Field: "model", Reason: "required, at most 60 characters"})
	}
	if f.Year < 1980 || f.Year > 2100 {
		errs = append(errs, FieldError{Field: "year", Reason: "must be between 1980 and 2100"})
	}
	if f.MileageKM < 0 || f.MileageKM > 2_000_000 {
		errs = append(errs, FieldError{Field: "mileage_km", Reason: "must be between 0 and 2000000"})
	}
	if f.Price < 1 || f.Price > 200_000_000 {
		errs = append(errs, FieldError{Field: "price", Reason: "must be between 1 and 200000000"})
	}
	if n := utf8.RuneCountInString(f.City); n == 0 || n > 40 {
		errs = append(errs, FieldError{Field: "city", Reason: "required, at most 40 characters"})
	}
	if utf8.RuneCountInString(f.Description) > 5000 {
		errs = append(errs, FieldError{Field: "description", Reason: "at most 5000 characters"})
	}
	return errs
}

type MessageRequest struct {
	Content string `json:"content" form:"content"`
}

func (m *MessageRequest) Validate() []FieldError {
	if n := utf8.RuneCountInString(m.Content); n < 2 || n > 500 {
		return []FieldError{{Field: "content", Reason: "must be 2-500 characters"}}
	}
	return nil
}
