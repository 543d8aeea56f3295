package draft

import "testing"

func TestRecorderAccumulates(t *testing.T) {
	r := NewRecorder()
	r.Field(1, "fullName", "Raj Kumar")
	r.Field(2, "email", "raj@example.com")
	r.Field(1, "fullName", "Raj K. Kumar")

	doc, err := r.Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	values, err := Values(doc)
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if got := values["1"]["fullName"]; got != "Raj K. Kumar" {
		t.Errorf("fullName = %q, want the later value", got)
	}
	if got := values["2"]["email"]; got != "raj@example.com" {
		t.Errorf("email = %q", got)
	}
}

func TestRecorderForSchema(t *testing.T) {
	schema := testSchema()
	schema.Sections[0].Fields[1].Value = "seed@example.com"

	r, err := NewRecorderFor(schema)
	if err != nil {
		t.Fatalf("NewRecorderFor: %v", err)
	}
	doc, err := r.Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	values, err := Values(doc)
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if got := values["1"]["email"]; got != "seed@example.com" {
		t.Errorf("email = %q, want seeded value", got)
	}
}
