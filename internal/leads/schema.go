package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Submission is a raw lead form: field name to string, number, array or nil.
type Submission map[string]any

// leadForm is the typed shape the validator checks. Field rules live in the tags;
// cross-field rules run afterwards in checkCrossField.
type leadForm struct {
	FullName     string   `json:"fullName" validate:"required,min=2,max=80"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Phone        string   `json:"phone" validate:"required,min=10,max=15,digits"`
	City         string   `json:"city" validate:"required,city"`
	PropertyType string   `json:"propertyType" validate:"required,property_type"`
	BHK          string   `json:"bhk" validate:"omitempty,bhk"`
	Purpose      string   `json:"purpose" validate:"required,purpose"`
	BudgetMin    *int     `json:"budgetMin" validate:"omitempty,gt=0,lte=2147483647"`
	BudgetMax    *int     `json:"budgetMax" validate:"omitempty,gt=0,lte=2147483647"`
	Timeline     string   `json:"timeline" validate:"required,timeline"`
	Source       string   `json:"source" validate:"required,source"`
	Notes        string   `json:"notes" validate:"max=1000"`
	Tags         []string `json:"tags"`
}

const maxBudget = math.MaxInt32

var (
	digitsPattern = regexp.MustCompile(`^\d+$`)

	enumValues = map[string][]string{
		"city":          cityValues,
		"property_type": propertyTypeValues,
		"bhk":           bhkValues,
		"purpose":       purposeValues,
		"timeline":      timelineValues,
		"source":        sourceValues,
	}

	fieldMessages = map[string]map[string]string{
		"fullName": {
			"min": "Full name must be at least 2 characters.",
			"max": "Full name cannot exceed 80 characters.",
		},
		"phone": {
			"min":    "Phone number must be 10-15 digits.",
			"max":    "Phone number must be 10-15 digits.",
			"digits": "Invalid phone number.",
		},
		"email": {
			"email": "Invalid email address.",
		},
		"notes": {
			"max": "Notes cannot exceed 1000 characters.",
		},
	}

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	for tag, values := range enumValues {
		if err := v.RegisterValidation(tag, oneOf(values)); err != nil {
			panic(err)
		}
	}
	return v
}

func oneOf(values []string) validator.Func {
	allowed := make(map[string]struct{}, len(values))
	for _, value := range values {
		allowed[value] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}
}

// ParseSubmission coerces and validates a raw submission. It never performs I/O.
// On failure the returned error is a *ValidationError listing every failing field.
func ParseSubmission(sub Submission) (*LeadInput, error) {
	errs := FieldErrors{}

	form := leadForm{
		FullName:     stringField(sub, "fullName", errs),
		Email:        stringField(sub, "email", errs),
		Phone:        strings.TrimSpace(stringField(sub, "phone", errs)),
		City:         stringField(sub, "city", errs),
		PropertyType: stringField(sub, "propertyType", errs),
		BHK:          stringField(sub, "bhk", errs),
		Purpose:      stringField(sub, "purpose", errs),
		BudgetMin:    intField(sub, "budgetMin", errs),
		BudgetMax:    intField(sub, "budgetMax", errs),
		Timeline:     stringField(sub, "timeline", errs),
		Source:       stringField(sub, "source", errs),
		Notes:        stringField(sub, "notes", errs),
		Tags:         tagsField(sub, "tags", errs),
	}
	expectedUpdatedAt := timeField(sub, "updatedAt", errs)

	if err := validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("leads: validate submission: %w", err)
		}
		for _, fe := range fieldErrs {
			if _, coerced := errs[fe.Field()]; coerced {
				continue
			}
			errs.Add(fe.Field(), messageFor(fe))
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Message: msgInvalidSubmission, Fields: errs}
	}

	checkCrossField(&form, errs)
	if len(errs) > 0 {
		return nil, &ValidationError{Message: msgInvalidSubmission, Fields: errs}
	}

	return form.toInput(expectedUpdatedAt), nil
}

func checkCrossField(form *leadForm, errs FieldErrors) {
	if form.BudgetMin != nil && form.BudgetMax != nil && *form.BudgetMax < *form.BudgetMin {
		errs.Add("budgetMax", "Max budget must be greater than or equal to min budget.")
	}
	if PropertyType(form.PropertyType).RequiresBHK() && form.BHK == "" {
		errs.Add("bhk", "BHK is required for Apartments and Villas.")
	}
}

func (f *leadForm) toInput(expectedUpdatedAt *time.Time) *LeadInput {
	in := &LeadInput{
		FullName:          f.FullName,
		Email:             optionalString(f.Email),
		Phone:             f.Phone,
		City:              City(f.City),
		PropertyType:      PropertyType(f.PropertyType),
		Purpose:           Purpose(f.Purpose),
		BudgetMin:         f.BudgetMin,
		BudgetMax:         f.BudgetMax,
		Timeline:          Timeline(f.Timeline),
		Source:            Source(f.Source),
		Notes:             optionalString(f.Notes),
		Tags:              f.Tags,
		ExpectedUpdatedAt: expectedUpdatedAt,
	}
	if f.BHK != "" {
		bhk := BHK(f.BHK)
		in.BHK = &bhk
	}
	return in
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()][fe.Tag()]; ok {
		return msg
	}
	if values, ok := enumValues[fe.Tag()]; ok {
		return enumMessage(values, fe.Value())
	}
	switch fe.Tag() {
	case "required":
		return "Required"
	case "gt":
		return "Number must be greater than " + fe.Param()
	case "lte":
		return "Number must be less than or equal to " + fe.Param()
	case "min":
		return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	case "email":
		return "Invalid email address."
	default:
		return fmt.Sprintf("Invalid %s", fe.Field())
	}
}

func enumMessage(values []string, received any) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return fmt.Sprintf("Invalid enum value. Expected %s, received '%v'", strings.Join(quoted, " | "), received)
}

// stringField reads an optional string; absent and null become "".
func stringField(sub Submission, key string, errs FieldErrors) string {
	raw, ok := sub[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		errs.Add(key, "Expected string, received "+kindOf(raw))
		return ""
	}
	return s
}

// intField coerces numbers and numeric strings to an integer. Blank means unset.
func intField(sub Submission, key string, errs FieldErrors) *int {
	raw, ok := sub[key]
	if !ok || raw == nil {
		return nil
	}

	var f float64
	switch v := raw.(type) {
	case int:
		n := v
		return &n
	case int64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			errs.Add(key, "Expected number, received nan")
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(parsed) {
			errs.Add(key, "Expected number, received nan")
			return nil
		}
		f = parsed
	default:
		errs.Add(key, "Expected number, received "+kindOf(raw))
		return nil
	}

	switch {
	case math.IsInf(f, 0) || f != math.Trunc(f):
		errs.Add(key, "Expected integer, received float")
		return nil
	case f > maxBudget:
		errs.Add(key, fmt.Sprintf("Number must be less than or equal to %d", maxBudget))
		return nil
	case f < math.MinInt32:
		errs.Add(key, "Number must be greater than 0")
		return nil
	}
	n := int(f)
	return &n
}

// tagsField accepts a string array, repeated form values, or one comma-separated string.
func tagsField(sub Submission, key string, errs FieldErrors) []string {
	raw, ok := sub[key]
	if !ok || raw == nil {
		return nil
	}

	var items []string
	switch v := raw.(type) {
	case []string:
		items = v
	case string:
		items = strings.Split(v, ",")
	case []any:
		items = make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				errs.Add(key, fmt.Sprintf("Expected string, received %s at index %d", kindOf(item), i))
				return nil
			}
			items = append(items, s)
		}
	default:
		errs.Add(key, "Expected array, received "+kindOf(raw))
		return nil
	}

	tags := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// timeField parses the reserved concurrency token. Unparseable strings are ignored.
func timeField(sub Submission, key string, errs FieldErrors) *time.Time {
	s := strings.TrimSpace(stringField(sub, key, errs))
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
