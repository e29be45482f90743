package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validate is the shared validator instance with the budget-specific tags registered.
var Validate *validator.Validate

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	mustRegister("decgt", decimalBound(func(c int) bool { return c > 0 }))
	mustRegister("decgte", decimalBound(func(c int) bool { return c >= 0 }))
	mustRegister("declte", decimalBound(func(c int) bool { return c <= 0 }))
	mustRegister("hexcolor6", func(fl validator.FieldLevel) bool {
		return hexColorRe.MatchString(fl.Field().String())
	})
	mustRegister("hasupper", hasRune(unicode.IsUpper))
	mustRegister("haslower", hasRune(unicode.IsLower))
	mustRegister("hasdigit", hasRune(unicode.IsDigit))
	mustRegister("currency", func(fl validator.FieldLevel) bool {
		_, ok := LookupCurrency(fl.Field().String())
		return ok
	})

	Validate.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(SavingsRateInput)
		if in.Percent.LessThan(MinSavingsRate.Mul(decimal.NewFromInt(100))) &&
			len([]rune(strings.TrimSpace(in.Reason))) < 10 {
			sl.ReportError(in.Reason, "Reason", "Reason", "reasonrequired", "")
		}
	}, SavingsRateInput{})
}

func mustRegister(tag string, fn validator.Func) {
	if err := Validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// decimalBound compares a decimal.Decimal field against the tag parameter
// exactly, e.g. `validate:"decgt=0"`. Any other field type fails.
func decimalBound(accept func(cmp int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return accept(d.Cmp(bound))
	}
}

func hasRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

type (
	SignUpInput struct {
		Email           string `validate:"required,email"`
		Password        string `validate:"required,min=8,hasupper,haslower,hasdigit"`
		ConfirmPassword string `validate:"eqfield=Password"`
	}

	SignInInput struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required"`
	}

	PasswordInput struct {
		Password        string `validate:"required,min=8,hasupper,haslower,hasdigit"`
		ConfirmPassword string `validate:"eqfield=Password"`
	}

	EmailInput struct {
		Email string `validate:"required,email"`
	}

	IncomeInput struct {
		Amount decimal.Decimal `validate:"decgt=0,declte=999999999999"`
	}

	// SavingsRateInput takes the rate as a 0-100 percentage.
	SavingsRateInput struct {
		Percent decimal.Decimal `validate:"decgte=0,declte=100"`
		Reason  string          `validate:"max=500"`
	}

	CategoryInput struct {
		Name  string `validate:"required,max=50"`
		Color string `validate:"hexcolor6"`
	}

	CategoryUpdateInput struct {
		Name  *string `validate:"omitnil,min=1,max=50"`
		Color *string `validate:"omitnil,hexcolor6"`
	}

	AllocationInput struct {
		Amount decimal.Decimal `validate:"decgte=0"`
	}

	ReorderInput struct {
		IDs []string `validate:"min=1,max=100,unique,dive,uuid"`
	}

	OnboardingInput struct {
		Income   decimal.Decimal `validate:"decgt=0,declte=999999999999"`
		Currency string          `validate:"currency"`
	}

	CurrencyInput struct {
		Currency string `validate:"currency"`
	}
)

// messages maps "Type.Field.tag" to the text shown to users.
var messages = map[string]string{
	"SignUpInput.Email.required":             "Email is required",
	"SignUpInput.Email.email":                "Invalid email address",
	"SignUpInput.Password.required":          "Password is required",
	"SignUpInput.Password.min":               "Password must be at least 8 characters",
	"SignUpInput.Password.hasupper":          "Password must contain at least one uppercase letter",
	"SignUpInput.Password.haslower":          "Password must contain at least one lowercase letter",
	"SignUpInput.Password.hasdigit":          "Password must contain at least one number",
	"SignUpInput.ConfirmPassword.eqfield":    "Passwords don't match",
	"SignInInput.Email.required":             "Email is required",
	"SignInInput.Email.email":                "Invalid email address",
	"SignInInput.Password.required":          "Password is required",
	"PasswordInput.Password.required":        "Password is required",
	"PasswordInput.Password.min":             "Password must be at least 8 characters",
	"PasswordInput.Password.hasupper":        "Password must contain at least one uppercase letter",
	"PasswordInput.Password.haslower":        "Password must contain at least one lowercase letter",
	"PasswordInput.Password.hasdigit":        "Password must contain at least one number",
	"PasswordInput.ConfirmPassword.eqfield":  "Passwords don't match",
	"EmailInput.Email.required":              "Email is required",
	"EmailInput.Email.email":                 "Invalid email address",
	"IncomeInput.Amount.decgt":               "Income must be positive",
	"IncomeInput.Amount.declte":              "Income is too large",
	"SavingsRateInput.Percent.decgte":        "Savings rate must be between 0 and 100",
	"SavingsRateInput.Percent.declte":        "Savings rate must be between 0 and 100",
	"SavingsRateInput.Reason.reasonrequired": "Please explain why you are saving less than 20% (at least 10 characters)",
	"SavingsRateInput.Reason.max":            "Reason must be 500 characters or less",
	"CategoryInput.Name.required":            "Category name is required",
	"CategoryInput.Name.max":                 "Category name must be 50 characters or less",
	"CategoryInput.Color.hexcolor6":          "Color must be a hex value like #6366f1",
	"CategoryUpdateInput.Name.min":           "Category name is required",
	"CategoryUpdateInput.Name.max":           "Category name must be 50 characters or less",
	"CategoryUpdateInput.Color.hexcolor6":    "Color must be a hex value like #6366f1",
	"AllocationInput.Amount.decgte":          "Amount cannot be negative",
	"ReorderInput.IDs.min":                   "At least one category is required",
	"ReorderInput.IDs.max":                   "Too many categories",
	"ReorderInput.IDs.unique":                "Category ids must be unique",
	"ReorderInput.IDs.uuid":                  "Invalid category id",
	"OnboardingInput.Income.decgt":           "Income must be positive",
	"OnboardingInput.Income.declte":          "Income is too large",
	"OnboardingInput.Currency.currency":      "Please select a supported currency",
	"CurrencyInput.Currency.currency":        "Please select a supported currency",
}

// Check validates in and returns a validation UserError carrying the first failure's message.
func Check(in any) error {
	err := Validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Invalid("Invalid input")
	}
	return Invalid(messageFor(verrs[0]))
}

func messageFor(fe validator.FieldError) string {
	typeName, _, _ := strings.Cut(fe.StructNamespace(), ".")
	field := fe.StructField()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	if msg, ok := messages[typeName+"."+field+"."+fe.Tag()]; ok {
		return msg
	}
	return "Invalid " + strings.ToLower(field)
}
