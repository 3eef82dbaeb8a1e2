package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestItemSchemaRegistered(t *testing.T) {
	s, ok := GetSchema(ItemSchemaKey)
	if !ok {
		t.Fatal("purchase item schema not registered")
	}

	wantRequired := []string{"itemName", "itemCode", "quantity", "cost"}
	if diff := cmp.Diff(wantRequired, s.Required()); diff != "" {
		t.Errorf("Required() mismatch (-want +got):\n%s", diff)
	}
	if len(s.Example) != len(s.Columns()) {
		t.Errorf("example has %d cells for %d columns", len(s.Example), len(s.Columns()))
	}
}

func TestComponentSchema_RejectsItemSchema(t *testing.T) {
	_, err := ComponentSchema(ComponentKind(ItemSchemaKey))
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ComponentSchema(%q) error = %v, want ErrUnknownKind", ItemSchemaKey, err)
	}
}

func TestRegisterSchema_DuplicatePanics(t *testing.T) {
	s := ImportSchema{Key: "registry_test_duplicate", Fields: []FieldSpec{{Name: "a"}}}
	RegisterSchema(s)

	defer func() {
		if recover() == nil {
			t.Error("registering a duplicate key did not panic")
		}
	}()
	RegisterSchema(s)
}

func TestSchemas_Sorted(t *testing.T) {
	all := Schemas()
	if len(all) != SchemaCount() {
		t.Fatalf("Schemas() returned %d, SchemaCount() = %d", len(all), SchemaCount())
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key > all[i].Key {
			t.Errorf("schemas not sorted: %q before %q", all[i-1].Key, all[i].Key)
		}
	}
}
