package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateScan(t *testing.T) {
	inputs := []any{
		"2025-03-04",
		[]byte("2025-03-04"),
		"2025-03-04T00:00:00Z",
		time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC),
	}
	for _, in := range inputs {
		var d Date
		if err := d.Scan(in); err != nil {
			t.Fatalf("%v: %v", in, err)
		}
		if d.String() != "2025-03-04" {
			t.Fatalf("%v: got %s", in, d)
		}
	}

	var d Date
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Fatalf("nil should scan to zero date, got %v (%v)", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error for int")
	}
}

func TestParseTransactionType(t *testing.T) {
	for _, in := range []string{"INCOME", "income", " Expense "} {
		if _, err := ParseTransactionType(in); err != nil {
			t.Fatalf("%q: %v", in, err)
		}
	}
	if _, err := ParseTransactionType("TRANSFER"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestParseCurrency(t *testing.T) {
	for _, c := range Currencies() {
		got, err := ParseCurrency(string(c))
		if err != nil || got != c {
			t.Fatalf("%q: got %q (%v)", c, got, err)
		}
	}
	if _, err := ParseCurrency("GBP"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Title:  "Groceries",
		Amount: NewMoney(50, 0),
		Type:   Expense,
		Date:   NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mutate := func(f func(*TransactionInput)) TransactionInput {
		in := good
		f(&in)
		return in
	}
	bads := []TransactionInput{
		mutate(func(in *TransactionInput) { in.Title = "  " }),
		mutate(func(in *TransactionInput) { in.Title = strings.Repeat("x", MaxTitleLen+1) }),
		mutate(func(in *TransactionInput) { in.Amount = Money{Cents: -1} }),
		mutate(func(in *TransactionInput) { in.Type = "TRANSFER" }),
		mutate(func(in *TransactionInput) { in.Date = Date{} }),
	}
	for i, in := range bads {
		if err := in.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestCategoryNameValidate(t *testing.T) {
	if err := ValidateCategoryName("Food"); err != nil {
		t.Fatal(err)
	}
	if err := ValidateCategoryName(""); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := ValidateCategoryName(strings.Repeat("a", MaxCategoryNameLen+1)); err == nil {
		t.Fatal("expected error for long name")
	}
}

func TestRegistrationValidate(t *testing.T) {
	good := Registration{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noEmail := good
	noEmail.Email = ""
	if err := noEmail.Validate(); err != nil {
		t.Fatalf("email is optional, got %v", err)
	}

	mismatch := good
	mismatch.ConfirmPassword = "other-pass"
	err := mismatch.Validate()
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != "Passwords do not match" {
		t.Fatalf("unexpected message: %v", err)
	}

	cases := []Registration{
		{Username: "", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass"},
		{Username: "bad name", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass"},
		{Username: "bob", Email: "not-an-email", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass"},
		{Username: "bob", Password: "short", ConfirmPassword: "short"},
		{Username: "bob", Password: "12345678", ConfirmPassword: "12345678"},
	}
	for i, r := range cases {
		if err := r.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestRequireSuperuser(t *testing.T) {
	cases := []struct {
		user User
		ok   bool
	}{
		{User{IsActive: true, IsSuperuser: true}, true},
		{User{IsActive: true, IsStaff: true}, false},
		{User{IsActive: true}, false},
		{User{IsActive: false, IsSuperuser: true}, false},
	}
	for i, tc := range cases {
		err := RequireSuperuser(tc.user)
		if tc.ok != (err == nil) {
			t.Fatalf("case %d: got %v", i, err)
		}
		if err != nil && !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("case %d: expected ErrPermissionDenied, got %v", i, err)
		}
	}
}
