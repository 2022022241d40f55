package serverutils

import (
	"errors"
	"testing"

	"notevault/pkg/fault"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"title too long", fault.Validation(fault.TitleTooLong), fiber.StatusUnprocessableEntity, "TitleTooLong"},
		{"title not utf-8", fault.Validation(fault.TitleMalformed), fiber.StatusUnprocessableEntity, "TitleMalformed"},
		{"content not utf-8", fault.Validation(fault.ContentMalformed), fiber.StatusUnprocessableEntity, "ContentMalformed"},
		{"unauthorized", fault.ErrUnauthorized, fiber.StatusForbidden, "Unauthorized"},
		{"busy", fault.ErrBusy, fiber.StatusConflict, "Busy"},
		{"transport", fault.Transport("POST /v1/transactions", errors.New("reset")), fiber.StatusBadGateway, "TransportFailed"},
		{"fiber error", fiber.ErrUnauthorized, fiber.StatusUnauthorized, ""},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := Classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
