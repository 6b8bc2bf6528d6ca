package desk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edgard/helpdeskbot/internal/quickbase"
)

const subjectLength = 50

// TicketForm is the structured ticket a user submits when escalating.
type TicketForm struct {
	Subject     string `json:"subject"     validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=4000"`
	Category    string `json:"category"    validate:"required,ticket_category"`
	Priority    string `json:"priority"    validate:"required,oneof=Low Medium High Critical"`
}

// FormFromQuestion pre-fills a form from the question that started the conversation.
func FormFromQuestion(question, category string) TicketForm {
	if !quickbase.IsCategory(category) {
		category = quickbase.DefaultCategory
	}
	return TicketForm{
		Subject:     Subject(question),
		Description: strings.TrimSpace(question),
		Category:    category,
		Priority:    quickbase.PriorityMedium,
	}
}

// Subject returns the first 50 runes of text on a single line.
func Subject(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > subjectLength {
		runes = runes[:subjectLength]
	}
	return strings.TrimSpace(string(runes))
}

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("ticket_category", func(fl validator.FieldLevel) bool {
		return quickbase.IsCategory(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
	return v
}

func (f *TicketForm) normalize() {
	f.Subject = strings.TrimSpace(f.Subject)
	f.Description = strings.TrimSpace(f.Description)
	f.Category = strings.TrimSpace(f.Category)
	f.Priority = strings.TrimSpace(f.Priority)
}

// describeValidation turns validator errors into a short list for the user.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s is longer than %s characters", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s %q is not allowed", field, fe.Value()))
		}
	}
	return strings.Join(parts, ", ")
}
