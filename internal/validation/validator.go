// Package validation turns a raw property submission into a typed
// models.Property, rejecting it with the first rule it violates.
package validation

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

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/listings/api/internal/models"
)

// MinYearBuilt is the earliest accepted construction year.
const MinYearBuilt = 1800

// Wire names of the submission fields.
const (
	FieldTitle        = "title"
	FieldLocation     = "location"
	FieldPrice        = "price"
	FieldArea         = "sqft"
	FieldBedrooms     = "bedrooms"
	FieldBathrooms    = "bathrooms"
	FieldYearBuilt    = "yearBuilt"
	FieldDescription  = "description"
	FieldPropertyType = "propertyType"
	FieldImage        = "image"
	FieldContactEmail = "contactEmail"
	FieldContactPhone = "contactPhone"
)

// aliases maps alternative wire names onto their canonical field.
var aliases = map[string]string{
	"area": FieldArea,
}

// knownFields are the wire names a submission is read from.
var knownFields = map[string]bool{
	FieldTitle: true, FieldLocation: true, FieldPrice: true, FieldArea: true,
	FieldBedrooms: true, FieldBathrooms: true, FieldYearBuilt: true,
	FieldDescription: true, FieldPropertyType: true, FieldImage: true,
	FieldContactEmail: true, FieldContactPhone: true,
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalid matches every *Error via errors.Is.
var ErrInvalid = errors.New("invalid property submission")

// Error describes the first rule a submission violated.
// Message is safe to show to the submitter as-is.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets callers test for any validation failure with errors.Is(err, ErrInvalid).
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Input is an untyped submission as decoded from JSON or form values.
type Input map[string]interface{}

// presence lists the required fields in the order they are checked.
type presence struct {
	Title        string `json:"title" validate:"required"`
	Location     string `json:"location" validate:"required"`
	Price        string `json:"price" validate:"required"`
	Area         string `json:"sqft" validate:"required"`
	Bedrooms     string `json:"bedrooms" validate:"required"`
	Bathrooms    string `json:"bathrooms" validate:"required"`
	YearBuilt    string `json:"yearBuilt" validate:"required"`
	ContactEmail string `json:"contactEmail" validate:"required"`
	ContactPhone string `json:"contactPhone" validate:"required"`
}

// listing holds the parsed values whose ranges and formats are checked.
// Field order is the order rules are applied in.
type listing struct {
	Price        float64 `label:"Price" validate:"gt=0"`
	Area         float64 `label:"Square footage" validate:"gt=0"`
	Bedrooms     int     `label:"Bedrooms" validate:"gte=0"`
	Bathrooms    float64 `label:"Bathrooms" validate:"gte=0"`
	YearBuilt    int     `label:"Year built" validate:"year_built"`
	ContactEmail string  `label:"Contact email" validate:"contact_email"`
}

// numericField ties a wire field to the listing field it parses into.
type numericField struct {
	name        string
	structField string
	integer     bool
}

var numericFields = []numericField{
	{name: FieldPrice, structField: "Price"},
	{name: FieldArea, structField: "Area"},
	{name: FieldBedrooms, structField: "Bedrooms", integer: true},
	{name: FieldBathrooms, structField: "Bathrooms"},
	{name: FieldYearBuilt, structField: "YearBuilt", integer: true},
}

// Validator checks property submissions. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
	now      func() time.Time
}

// New creates a Validator. now supplies the current time for the
// year-built upper bound; nil means time.Now.
func New(now func() time.Time) (*Validator, error) {
	if now == nil {
		now = time.Now
	}

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")

	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		trans:    trans,
		now:      now,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.validate.RegisterValidation("year_built", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= MinYearBuilt && year <= int64(v.now().Year())
	}); err != nil {
		return nil, fmt.Errorf("failed to register year_built rule: %w", err)
	}

	if err := v.validate.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register contact_email rule: %w", err)
	}

	if err := v.registerTranslations(); err != nil {
		return nil, err
	}

	return v, nil
}

// MustNew is like New but panics on error.
func MustNew(now func() time.Time) *Validator {
	v, err := New(now)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Validator) registerTranslations() error {
	messages := map[string]string{
		"required":      "Missing required field: {0}",
		"gt":            "{0} must be greater than {1}",
		"gte":           "{0} cannot be negative",
		"contact_email": "Invalid email format",
	}
	for tag, text := range messages {
		tag, text := tag, text
		err := v.validate.RegisterTranslation(tag, v.trans,
			func(trans ut.Translator) error {
				return trans.Add(tag, text, true)
			},
			func(trans ut.Translator, fe validator.FieldError) string {
				msg, err := trans.T(fe.Tag(), fe.Field(), fe.Param())
				if err != nil {
					return fe.Error()
				}
				return msg
			},
		)
		if err != nil {
			return fmt.Errorf("failed to register %s translation: %w", tag, err)
		}
	}

	return v.validate.RegisterTranslation("year_built", v.trans,
		func(trans ut.Translator) error {
			return trans.Add("year_built", "{0} must be between {1} and {2}", true)
		},
		func(trans ut.Translator, fe validator.FieldError) string {
			msg, err := trans.T("year_built", fe.Field(),
				strconv.Itoa(MinYearBuilt), strconv.Itoa(v.now().Year()))
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// Validate normalizes input, applies the submission rules in order and
// returns the typed property. The returned property has no ID, status or
// timestamps; those belong to the store. Any failure is an *Error.
func (v *Validator) Validate(input Input) (*models.Property, error) {
	fields, err := normalize(input)
	if err != nil {
		return nil, err
	}

	required := presence{
		Title:        fields[FieldTitle],
		Location:     fields[FieldLocation],
		Price:        fields[FieldPrice],
		Area:         fields[FieldArea],
		Bedrooms:     fields[FieldBedrooms],
		Bathrooms:    fields[FieldBathrooms],
		YearBuilt:    fields[FieldYearBuilt],
		ContactEmail: fields[FieldContactEmail],
		ContactPhone: fields[FieldContactPhone],
	}
	if err := v.validate.Struct(required); err != nil {
		return nil, v.firstError(err)
	}

	parsed := listing{ContactEmail: fields[FieldContactEmail]}
	target := reflect.ValueOf(&parsed).Elem()

	// Parse failures and range violations share one ordering: a field is
	// parsed and range-checked before the next field is looked at.
	for i, nf := range numericFields {
		if perr := parseInto(target.FieldByName(nf.structField), nf, fields[nf.name]); perr != nil {
			if i > 0 {
				checked := make([]string, 0, i)
				for _, prev := range numericFields[:i] {
					checked = append(checked, prev.structField)
				}
				if err := v.validate.StructPartial(parsed, checked...); err != nil {
					return nil, v.firstError(err)
				}
			}
			return nil, perr
		}
	}

	if err := v.validate.Struct(parsed); err != nil {
		return nil, v.firstError(err)
	}

	propertyType := fields[FieldPropertyType]
	if propertyType == "" {
		propertyType = models.DefaultPropertyType
	}

	return &models.Property{
		Title:        fields[FieldTitle],
		Location:     fields[FieldLocation],
		Price:        parsed.Price,
		Area:         parsed.Area,
		Bedrooms:     parsed.Bedrooms,
		Bathrooms:    parsed.Bathrooms,
		YearBuilt:    parsed.YearBuilt,
		Description:  fields[FieldDescription],
		PropertyType: propertyType,
		ImageURL:     fields[FieldImage],
		ContactEmail: parsed.ContactEmail,
		ContactPhone: fields[FieldContactPhone],
	}, nil
}

// firstError converts the first reported rule violation into an *Error.
func (v *Validator) firstError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Message: err.Error()}
	}
	fe := verrs[0]
	return &Error{
		Field:   wireName(fe.StructField()),
		Message: fe.Translate(v.trans),
	}
}

func wireName(structField string) string {
	switch structField {
	case "Title":
		return FieldTitle
	case "Location":
		return FieldLocation
	case "Price":
		return FieldPrice
	case "Area":
		return FieldArea
	case "Bedrooms":
		return FieldBedrooms
	case "Bathrooms":
		return FieldBathrooms
	case "YearBuilt":
		return FieldYearBuilt
	case "ContactEmail":
		return FieldContactEmail
	case "ContactPhone":
		return FieldContactPhone
	}
	return structField
}

func parseInto(dst reflect.Value, nf numericField, raw string) error {
	if nf.integer {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return &Error{Field: nf.name, Message: fmt.Sprintf("Invalid data type: %s must be an integer", nf.name)}
		}
		dst.SetInt(int64(n))
		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return &Error{Field: nf.name, Message: fmt.Sprintf("Invalid data type: %s must be a number", nf.name)}
	}
	dst.SetFloat(f)
	return nil
}

// normalize flattens input into trimmed strings keyed by canonical field
// name. Keys outside knownFields are skipped whatever their value.
func normalize(input Input) (map[string]string, error) {
	fields := make(map[string]string, len(knownFields))
	for key, value := range input {
		name := key
		if canonical, ok := aliases[key]; ok {
			name = canonical
			if _, dup := input[canonical]; dup {
				continue
			}
		}
		if !knownFields[name] {
			continue
		}
		s, ok := scalarString(value)
		if !ok {
			return nil, &Error{Field: name, Message: fmt.Sprintf("Invalid data type: %s must be a single value", name)}
		}
		fields[name] = strings.TrimSpace(s)
	}
	return fields, nil
}

func scalarString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case []string:
		if len(v) == 0 {
			return "", true
		}
		return v[0], true
	}
	return "", false
}
