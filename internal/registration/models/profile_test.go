package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sendcore/pkg/domain-errors"
)

func validFacts() BusinessFacts {
	return BusinessFacts{
		BusinessName:     "Acme Dental",
		EIN:              "12-3456789",
		Website:          "https://acmedental.example",
		Address:          "100 Main St, Springfield IL 62701",
		ContactName:      "Dana Smith",
		ContactEmail:     "dana@acmedental.example",
		ContactPhone:     "+13125550142",
		SampleMessages:   []string{"Your appointment is tomorrow at 2pm.", "Reply YES to confirm."},
		OptInDescription: "Patients opt in on the intake form.",
		Volume:           "1000",
		UseCaseCode:      "MIXED",
	}
}

func TestBusinessFactsNormalize(t *testing.T) {
	t.Run("EIN keeps digits only", func(t *testing.T) {
		for _, raw := range []string{"12-3456789", "123456789", "123 456 789", " 12-3456789 "} {
			f := validFacts()
			f.EIN = raw
			f.Normalize()
			assert.Equal(t, "123456789", f.EIN, "raw %q", raw)
		}
	})

	t.Run("trims whitespace and drops empty samples", func(t *testing.T) {
		f := validFacts()
		f.BusinessName = "  Acme Dental  "
		f.SampleMessages = []string{" hello ", "", "  ", "world"}
		f.Normalize()
		assert.Equal(t, "Acme Dental", f.BusinessName)
		assert.Equal(t, []string{"hello", "world"}, f.SampleMessages)
	})
}

func TestBusinessFactsValidate(t *testing.T) {
	t.Run("valid facts pass", func(t *testing.T) {
		f := validFacts()
		f.Normalize()
		require.NoError(t, f.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*BusinessFacts)
	}{
		{"missing business name", func(f *BusinessFacts) { f.BusinessName = "" }},
		{"EIN too short", func(f *BusinessFacts) { f.EIN = "12345678" }},
		{"EIN too long", func(f *BusinessFacts) { f.EIN = "1234567890" }},
		{"missing website", func(f *BusinessFacts) { f.Website = "" }},
		{"missing address", func(f *BusinessFacts) { f.Address = "" }},
		{"missing contact email", func(f *BusinessFacts) { f.ContactEmail = "" }},
		{"one sample message", func(f *BusinessFacts) { f.SampleMessages = f.SampleMessages[:1] }},
		{"missing opt-in description", func(f *BusinessFacts) { f.OptInDescription = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFacts()
			tt.mutate(&f)
			f.Normalize()
			err := f.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func TestProfileHandles(t *testing.T) {
	p := &RegistrationProfile{}

	t.Run("string handles round-trip", func(t *testing.T) {
		p.SetHandle(FieldBrandID, "BN0001")
		assert.Equal(t, "BN0001", p.Handle(FieldBrandID))
		assert.Equal(t, "BN0001", p.BrandID)
	})

	t.Run("boolean handle renders as true or empty", func(t *testing.T) {
		assert.Equal(t, "", p.Handle(FieldAssignedToPrimary))
		p.SetHandle(FieldAssignedToPrimary, "true")
		assert.True(t, p.AssignedToPrimary)
		assert.Equal(t, "true", p.Handle(FieldAssignedToPrimary))
	})

	t.Run("every handle field is addressable", func(t *testing.T) {
		p := &RegistrationProfile{}
		for i, f := range HandleFields {
			want := "true"
			if f != FieldAssignedToPrimary {
				want = string(rune('A' + i))
			}
			p.SetHandle(f, want)
			assert.Equal(t, want, p.Handle(f), "field %s", f)
		}
	})
}

func TestProfileClone(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &RegistrationProfile{
		Facts:              validFacts(),
		BrandID:            "BN0001",
		ApprovalNotifiedAt: &at,
	}
	cp := p.Clone()

	cp.Facts.SampleMessages[0] = "changed"
	*cp.ApprovalNotifiedAt = at.Add(time.Hour)
	cp.BrandID = "BN0002"

	assert.Equal(t, "Your appointment is tomorrow at 2pm.", p.Facts.SampleMessages[0])
	assert.Equal(t, at, *p.ApprovalNotifiedAt)
	assert.Equal(t, "BN0001", p.BrandID)
}
