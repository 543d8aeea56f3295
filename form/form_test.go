package form

import (
	"reflect"
	"testing"
)

func sampleSchema() *Schema {
	return &Schema{
		FormCode: "passport",
		Sections: []Section{
			{
				ID:    1,
				Title: "Personal Details",
				Fields: []Field{
					{SectionID: 1, FieldKey: "fullName", Label: "Full Name", Required: true, Type: TypeText},
					{SectionID: 1, FieldKey: "gender", Label: "Gender", Required: true, Type: TypeRadio, Options: []string{"Male", "Female", "Other"}},
				},
			},
			{
				ID:    2,
				Title: "Contact Information",
				Fields: []Field{
					{SectionID: 2, FieldKey: "email", Label: "Email", Required: true, Type: TypeText},
					{SectionID: 2, FieldKey: "nickname", Label: "Nickname", Required: false, Type: TypeText},
				},
			},
		},
	}
}

func TestFieldID(t *testing.T) {
	if got := FieldID(2, "email"); got != "2-email" {
		t.Errorf("FieldID = %q, want 2-email", got)
	}
	f := Field{SectionID: 1, FieldKey: "gender"}
	if got := f.ID(); got != "1-gender" {
		t.Errorf("ID = %q, want 1-gender", got)
	}
}

func TestCompleteAndEmpty(t *testing.T) {
	required := Field{Required: true}
	if required.Complete() {
		t.Error("empty required field reported complete")
	}
	required.Value = "  "
	if required.Complete() {
		t.Error("whitespace value reported complete")
	}
	required.Value = "x"
	if !required.Complete() {
		t.Error("filled required field reported incomplete")
	}

	optional := Field{Required: false}
	if !optional.Complete() {
		t.Error("optional field reported incomplete")
	}
	if !optional.Empty() {
		t.Error("optional field with no value reported non-empty")
	}
}

func TestMatchOption(t *testing.T) {
	gender := Field{Type: TypeRadio, Options: []string{"Male", "Female", "Other"}}
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"female", "Female", true},
		{"FEMALE", "Female", true},
		{"male", "Male", true},
		{"fem", "Female", true},
		{"OTHER", "Other", true},
		{"cat", "", false},
		{"", "", false},
		{"  ", "", false},
	}
	for _, tc := range cases {
		got, ok := gender.MatchOption(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("MatchOption(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}

	text := Field{Type: TypeText}
	if got, ok := text.MatchOption("anything"); !ok || got != "anything" {
		t.Errorf("text MatchOption = %q, %v", got, ok)
	}
}

func TestFindAndFindByKeyword(t *testing.T) {
	s := sampleSchema()
	if f := s.Find(2, "email"); f == nil || f.Label != "Email" {
		t.Errorf("Find(2, email) = %v", f)
	}
	if f := s.Find(2, "EMAIL"); f == nil {
		t.Error("Find is not case-insensitive on field key")
	}
	if f := s.Find(3, "email"); f != nil {
		t.Errorf("Find(3, email) = %v, want nil", f)
	}
	if f := s.FindByKeyword("email"); f == nil || f.FieldKey != "email" {
		t.Errorf("FindByKeyword(email) = %v", f)
	}
	if f := s.FindByKeyword("name"); f == nil || f.FieldKey != "fullName" {
		t.Errorf("FindByKeyword(name) = %v, want fullName first", f)
	}
	if f := s.FindByKeyword("change the email address"); f == nil || f.FieldKey != "email" {
		t.Errorf("FindByKeyword with label inside keyword = %v", f)
	}
	if f := s.FindByKeyword("unrelated"); f != nil {
		t.Errorf("FindByKeyword(unrelated) = %v, want nil", f)
	}
}

func TestApply(t *testing.T) {
	s := sampleSchema()
	if !s.Apply(Update{SectionID: 2, FieldKey: "email", Value: "raj@example.com"}) {
		t.Fatal("Apply returned false for known field")
	}
	if got := s.Find(2, "email").Value; got != "raj@example.com" {
		t.Errorf("value after Apply = %q", got)
	}
	if s.Apply(Update{SectionID: 9, FieldKey: "email", Value: "x"}) {
		t.Error("Apply returned true for unknown section")
	}
}

func TestSubmittableAndMissingLabels(t *testing.T) {
	s := sampleSchema()
	if s.Submittable() {
		t.Error("empty schema reported submittable")
	}
	want := []string{"Full Name", "Gender", "Email"}
	if got := s.MissingLabels(); !reflect.DeepEqual(got, want) {
		t.Errorf("MissingLabels = %v, want %v", got, want)
	}

	s.Apply(Update{SectionID: 1, FieldKey: "fullName", Value: "Raj Kumar"})
	s.Apply(Update{SectionID: 1, FieldKey: "gender", Value: "Male"})
	s.Apply(Update{SectionID: 2, FieldKey: "email", Value: "raj@example.com"})
	if !s.Submittable() {
		t.Error("schema with all required values reported not submittable")
	}
	if got := s.MissingLabels(); got != nil {
		t.Errorf("MissingLabels = %v, want nil", got)
	}
}

func TestValidate(t *testing.T) {
	if err := sampleSchema().Validate(); err != nil {
		t.Errorf("valid schema: %v", err)
	}

	dupSection := sampleSchema()
	dupSection.Sections[1].ID = 1
	if err := dupSection.Validate(); err == nil {
		t.Error("duplicate section id accepted")
	}

	dupKey := sampleSchema()
	dupKey.Sections[0].Fields[1].FieldKey = "fullName"
	if err := dupKey.Validate(); err == nil {
		t.Error("duplicate field key accepted")
	}

	badRef := sampleSchema()
	badRef.Sections[0].Fields[0].SectionID = 2
	if err := badRef.Validate(); err == nil {
		t.Error("mismatched section reference accepted")
	}

	badOptions := sampleSchema()
	badOptions.Sections[1].Fields[0].Options = []string{"a"}
	if err := badOptions.Validate(); err == nil {
		t.Error("options on text field accepted")
	}
}

func TestClone(t *testing.T) {
	s := sampleSchema()
	clone := s.Clone()
	clone.Sections[0].Fields[0].Value = "mutated"
	if s.Sections[0].Fields[0].Value != "" {
		t.Error("mutating the clone changed the source schema")
	}
}
