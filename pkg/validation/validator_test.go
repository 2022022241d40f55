package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"notevault/pkg/fault"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		content  string
		wantKind *fault.ValidationKind
	}{
		{name: "valid", title: "Groceries", content: "Buy milk"},
		{name: "title at limit", title: strings.Repeat("t", 100), content: "c"},
		{name: "content at limit", title: "t", content: strings.Repeat("c", 1000)},
		{name: "both at limit", title: strings.Repeat("t", 100), content: strings.Repeat("c", 1000)},
		{name: "empty title", title: "", content: "c", wantKind: kind(fault.TitleEmpty)},
		{name: "empty content", title: "t", content: "", wantKind: kind(fault.ContentEmpty)},
		{name: "title too long", title: strings.Repeat("t", 101), content: "c", wantKind: kind(fault.TitleTooLong)},
		{name: "content too long", title: "t", content: strings.Repeat("c", 1001), wantKind: kind(fault.ContentTooLong)},
		{name: "empty title beats empty content", title: "", content: "", wantKind: kind(fault.TitleEmpty)},
		{name: "empty content beats long title", title: strings.Repeat("t", 101), content: "", wantKind: kind(fault.ContentEmpty)},
		{name: "empty title beats long content", title: "", content: strings.Repeat("c", 1001), wantKind: kind(fault.TitleEmpty)},
		{name: "long title beats long content", title: strings.Repeat("t", 101), content: strings.Repeat("c", 1001), wantKind: kind(fault.TitleTooLong)},
		// 34 three-byte runes: 34 characters but 102 bytes
		{name: "multi-byte title counted in bytes", title: strings.Repeat("日", 34), content: "c", wantKind: kind(fault.TitleTooLong)},
		{name: "multi-byte title within bytes", title: strings.Repeat("日", 33), content: "c"},
		{name: "title with invalid utf-8", title: "caf\xe9", content: "c", wantKind: kind(fault.TitleMalformed)},
		{name: "content with invalid utf-8", title: "t", content: "\xff\xfe", wantKind: kind(fault.ContentMalformed)},
		{name: "empty content beats malformed title", title: "caf\xe9", content: "", wantKind: kind(fault.ContentEmpty)},
		{name: "malformed content beats long title", title: strings.Repeat("t", 101), content: "\xff", wantKind: kind(fault.ContentMalformed)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.title, tt.content)
			if tt.wantKind == nil {
				assert.NoError(t, err)
				return
			}
			got, ok := fault.ValidationKindOf(err)
			if assert.True(t, ok, "expected validation error, got %v", err) {
				assert.Equal(t, *tt.wantKind, got)
			}
			assert.ErrorIs(t, err, fault.Validation(*tt.wantKind))
		})
	}
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("Buy milk and eggs"))
	assert.NoError(t, ValidateContent(strings.Repeat("c", 1000)))
	assert.ErrorIs(t, ValidateContent(""), fault.Validation(fault.ContentEmpty))
	assert.ErrorIs(t, ValidateContent(strings.Repeat("c", 1001)), fault.Validation(fault.ContentTooLong))
	assert.ErrorIs(t, ValidateContent("caf\xe9"), fault.Validation(fault.ContentMalformed))
}

func TestLimitsMatchRules(t *testing.T) {
	assert.NoError(t, Validate(strings.Repeat("t", MaxTitleBytes), strings.Repeat("c", MaxContentBytes)))
	assert.ErrorIs(t, Validate(strings.Repeat("t", MaxTitleBytes+1), "c"), fault.Validation(fault.TitleTooLong))
	assert.ErrorIs(t, ValidateContent(strings.Repeat("c", MaxContentBytes+1)), fault.Validation(fault.ContentTooLong))
}

func kind(k fault.ValidationKind) *fault.ValidationKind {
	return &k
}
