// Package validation enforces the note field constraints before any
// mutation is submitted to the ledger. The ledger enforces the same rules;
// lengths are counted in bytes on both sides.
package validation

import (
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"notevault/pkg/fault"
)

const (
	MaxTitleBytes   = 100
	MaxContentBytes = 1000
)

// titlebytes and contentbytes are aliases registered from the limits above.
type noteFields struct {
	Title   string `validate:"required,validutf8,titlebytes"`
	Content string `validate:"required,validutf8,contentbytes"`
}

type contentField struct {
	Content string `validate:"required,validutf8,contentbytes"`
}

// rank orders the rules; the lowest ranked failure is reported.
var rank = map[fault.ValidationKind]int{
	fault.TitleEmpty:       0,
	fault.ContentEmpty:     1,
	fault.TitleMalformed:   2,
	fault.ContentMalformed: 3,
	fault.TitleTooLong:     4,
	fault.ContentTooLong:   5,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// the built-in max counts runes; the ledger counts bytes
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	// JSON transport rewrites invalid bytes, which would break the signature
	_ = v.RegisterValidation("validutf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	})
	v.RegisterAlias("titlebytes", "maxbytes="+strconv.Itoa(MaxTitleBytes))
	v.RegisterAlias("contentbytes", "maxbytes="+strconv.Itoa(MaxContentBytes))
	return v
}

// Validate checks a title and content pair for creation.
func Validate(title, content string) error {
	return firstFailure(validate.Struct(noteFields{Title: title, Content: content}))
}

// ValidateContent checks replacement content for an update.
func ValidateContent(content string) error {
	return firstFailure(validate.Struct(contentField{Content: content}))
}

func firstFailure(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	found := false
	var best fault.ValidationKind
	for _, fe := range verrs {
		kind, ok := kindOf(fe)
		if !ok {
			continue
		}
		if !found || rank[kind] < rank[best] {
			best = kind
			found = true
		}
	}
	if !found {
		return err
	}
	return fault.Validation(best)
}

func kindOf(fe validator.FieldError) (fault.ValidationKind, bool) {
	switch fe.Field() {
	case "Title":
		switch fe.Tag() {
		case "required":
			return fault.TitleEmpty, true
		case "validutf8":
			return fault.TitleMalformed, true
		}
		return fault.TitleTooLong, true
	case "Content":
		switch fe.Tag() {
		case "required":
			return fault.ContentEmpty, true
		case "validutf8":
			return fault.ContentMalformed, true
		}
		return fault.ContentTooLong, true
	}
	return 0, false
}
