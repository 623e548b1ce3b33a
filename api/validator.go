package api

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/BpsEason/investment-risk-platform/internal/core"
	"github.com/BpsEason/investment-risk-platform/internal/data"
	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/BpsEason/investment-risk-platform/internal/service"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	riskMetricTag  = "riskmetric"
	maxInputLength = 100
)

// Validator handles validation logic separate from HTTP concerns
type Validator struct{}

var (
	validatorInstance *Validator
	validatorOnce     sync.Once
)

// GetValidator returns the singleton validator instance. The first call
// also registers the custom binding tags with gin's validator engine.
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		validatorInstance = &Validator{}
		if err := validatorInstance.registerBindingTags(); err != nil {
			slog.Default().Error("failed to register binding validations", "error", err)
		}
	})
	return validatorInstance
}

func (v *Validator) registerBindingTags() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return engine.RegisterValidation(riskMetricTag, func(fl validator.FieldLevel) bool {
		_, err := core.ParseMetric(fl.Field().String())
		return err == nil
	})
}

// ValidateRiskRequest checks a bound request before it reaches the engine.
// Metric names are matched exactly.
func (v *Validator) ValidateRiskRequest(req model.RiskRequest) (core.Metric, error) {
	metric, err := core.ParseMetric(req.Metric)
	if err != nil {
		return 0, err
	}
	if len(req.Data) == 0 {
		return 0, fmt.Errorf("%w: data must contain at least one price record", core.ErrInvalidInput)
	}
	return metric, nil
}

// ValidateUploadFilename sanitizes an uploaded file name and checks its
// extension. Long names are shortened, the extension is kept.
func (v *Validator) ValidateUploadFilename(filename string) (string, error) {
	clean := v.sanitizeInput(filename)
	if clean == "" {
		return "", service.ErrMissingFilename
	}
	if _, err := data.DetectFormat(clean); err != nil {
		return "", err
	}
	return shortenFilename(clean, maxInputLength), nil
}

// shortenFilename cuts the stem so that name holds at most limit runes
func shortenFilename(name string, limit int) string {
	if utf8.RuneCountInString(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return truncateRunes(stem, limit-utf8.RuneCountInString(ext)) + ext
}

// bindingErrorMessage turns binding failures into client-facing text
func (v *Validator) bindingErrorMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid request body: " + err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case riskMetricTag:
			if _, parseErr := core.ParseMetric(fmt.Sprint(fe.Value())); parseErr != nil {
				messages = append(messages, parseErr.Error())
			}
		default:
			messages = append(messages, fmt.Sprintf("%s failed on %s", field, fe.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func (v *Validator) sanitizeInput(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes and control characters
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 { // Keep tab
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(input)
}

// truncateRunes keeps the first limit runes of s
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
