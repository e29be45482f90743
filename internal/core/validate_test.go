package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCheck(t *testing.T) {
	cases := []struct {
		name string
		in   any
		msg  string
	}{
		{"valid sign up", SignUpInput{Email: "a@b.co", Password: "Passw0rd", ConfirmPassword: "Passw0rd"}, ""},
		{"bad email", SignUpInput{Email: "nope", Password: "Passw0rd", ConfirmPassword: "Passw0rd"}, "Invalid email address"},
		{"short password", SignUpInput{Email: "a@b.co", Password: "Pa0", ConfirmPassword: "Pa0"}, "Password must be at least 8 characters"},
		{"no upper", SignUpInput{Email: "a@b.co", Password: "passw0rd", ConfirmPassword: "passw0rd"}, "Password must contain at least one uppercase letter"},
		{"no digit", SignUpInput{Email: "a@b.co", Password: "Password", ConfirmPassword: "Password"}, "Password must contain at least one number"},
		{"mismatch", SignUpInput{Email: "a@b.co", Password: "Passw0rd", ConfirmPassword: "Passw0rd!"}, "Passwords don't match"},
		{"income ok", IncomeInput{Amount: dec("5000")}, ""},
		{"income zero", IncomeInput{Amount: dec("0")}, "Income must be positive"},
		{"income huge", IncomeInput{Amount: dec("1000000000000")}, "Income is too large"},
		{"income just over cap", IncomeInput{Amount: dec("999999999999.000000000000000001")}, "Income is too large"},
		{"income at cap", IncomeInput{Amount: dec("999999999999")}, ""},
		{"income tiny", IncomeInput{Amount: dec("0.000000000000000000000001")}, ""},
		{"rate ok", SavingsRateInput{Percent: dec("20")}, ""},
		{"rate high", SavingsRateInput{Percent: dec("101")}, "Savings rate must be between 0 and 100"},
		{"rate barely high", SavingsRateInput{Percent: dec("100.00000000000000001")}, "Savings rate must be between 0 and 100"},
		{"rate negative", SavingsRateInput{Percent: dec("-0.000000000000000001"), Reason: "car repairs this month"}, "Savings rate must be between 0 and 100"},
		{"low rate no reason", SavingsRateInput{Percent: dec("10"), Reason: "  short  "}, "Please explain why you are saving less than 20% (at least 10 characters)"},
		{"low rate reason", SavingsRateInput{Percent: dec("10"), Reason: "car repairs this month"}, ""},
		{"category ok", CategoryInput{Name: "Rent", Color: "#AABBCC"}, ""},
		{"category empty", CategoryInput{Name: "", Color: "#aabbcc"}, "Category name is required"},
		{"category long", CategoryInput{Name: strings.Repeat("x", 51), Color: "#aabbcc"}, "Category name must be 50 characters or less"},
		{"category short color", CategoryInput{Name: "Rent", Color: "#abc"}, "Color must be a hex value like #6366f1"},
		{"update nothing", CategoryUpdateInput{}, ""},
		{"update empty name", CategoryUpdateInput{Name: ptr("")}, "Category name is required"},
		{"update bad color", CategoryUpdateInput{Color: ptr("red")}, "Color must be a hex value like #6366f1"},
		{"negative allocation", AllocationInput{Amount: dec("-1")}, "Amount cannot be negative"},
		{"zero allocation", AllocationInput{Amount: dec("0")}, ""},
		{"tiny negative allocation", AllocationInput{Amount: dec("-0.0000000000000000000001")}, "Amount cannot be negative"},
		{"reorder empty", ReorderInput{}, "At least one category is required"},
		{"reorder bad id", ReorderInput{IDs: []string{"not-a-uuid"}}, "Invalid category id"},
		{"reorder duplicate", ReorderInput{IDs: []string{"6f1c1e8e-2f7a-4a0e-9d44-0c6a8f0f7a11", "6f1c1e8e-2f7a-4a0e-9d44-0c6a8f0f7a11"}}, "Category ids must be unique"},
		{"onboarding ok", OnboardingInput{Income: dec("5000"), Currency: "NGN"}, ""},
		{"onboarding currency", OnboardingInput{Income: dec("5000"), Currency: "JPY"}, "Please select a supported currency"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.in)
			if tc.msg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, tc.msg, UserMessage(err))
		})
	}
}

func TestReorderLimit(t *testing.T) {
	ids := make([]string, 101)
	for i := range ids {
		ids[i] = "6f1c1e8e-2f7a-4a0e-9d44-0c6a8f0f7a11"
	}
	err := Check(ReorderInput{IDs: ids})
	require.Error(t, err)
	assert.Equal(t, "Too many categories", UserMessage(err))
}

func TestDecimalTagsRejectOtherTypes(t *testing.T) {
	assert.Error(t, Validate.Var("5", "decgt=0"))
	assert.Error(t, Validate.Var(dec("5"), "decgt=abc"))
	assert.NoError(t, Validate.Var(dec("5"), "decgt=4.99"))
}

func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	assert.Panics(t, func() {
		mustRegister("", func(validator.FieldLevel) bool { return true })
	})
}
