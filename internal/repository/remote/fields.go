package remote

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const idField = "Id"

// Table binds a collection to its remote table. Fields listed in Overrides
// are sent under the given remote name instead of the derived one.
type Table struct {
	Name      string
	Overrides map[string]string
}

// Tables maps every collection to the table the record API stores it in.
var Tables = map[string]Table{
	model.CollectionPatients:       {Name: "patient_c"},
	model.CollectionDoctors:        {Name: "doctor_c", Overrides: map[string]string{"name": "Name"}},
	model.CollectionAppointments:   {Name: "appointment_c"},
	model.CollectionClinicalNotes:  {Name: "clinical_note_c"},
	model.CollectionBilling:        {Name: "billing_c"},
	model.CollectionTreatmentPlans: {Name: "treatment_plan_c"},
	model.CollectionDocuments:      {Name: "document_c"},
}

type fieldKind int

const (
	kindScalar fieldKind = iota
	kindRef              // int64 foreign key, may come back as a lookup object
	kindList             // []string, stored comma separated
	kindJSON             // nested slices and objects, stored as JSON text
	kindTime
)

type field struct {
	local  string
	remote string
	kind   fieldKind
}

// codec translates between a record's JSON shape and the remote row shape.
type codec struct {
	fields []field
}

var timeType = reflect.TypeOf(time.Time{})

func newCodec(t reflect.Type, table Table) *codec {
	c := &codec{}
	c.collect(t, table)
	return c
}

func (c *codec) collect(t reflect.Type, table Table) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			c.collect(sf.Type, table)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if name == "id" {
			continue
		}

		remote, ok := table.Overrides[name]
		if !ok {
			remote = RemoteName(name)
		}
		c.fields = append(c.fields, field{local: name, remote: remote, kind: kindOf(sf.Type)})
	}
}

func kindOf(t reflect.Type) fieldKind {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return kindTime
	case t.Kind() == reflect.Int64:
		return kindRef
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String:
		return kindList
	case t.Kind() == reflect.Slice, t.Kind() == reflect.Struct, t.Kind() == reflect.Map:
		return kindJSON
	default:
		return kindScalar
	}
}

// RemoteName turns a camelCase attribute into the remote "snake_case_c" form.
func RemoteName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	b.WriteString("_c")
	return b.String()
}

func (c *codec) projection() []Field {
	out := make([]Field, 0, len(c.fields)+1)
	out = append(out, Field{Field: FieldRef{Name: idField}})
	for _, f := range c.fields {
		out = append(out, Field{Field: FieldRef{Name: f.remote}})
	}
	return out
}

// encode converts a record into a remote row. Null attributes are left out.
func (c *codec) encode(rec any) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var local map[string]json.RawMessage
	if err := json.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	row := make(map[string]any, len(c.fields))
	for _, f := range c.fields {
		raw, ok := local[f.local]
		if !ok || string(raw) == "null" {
			continue
		}
		switch f.kind {
		case kindList:
			var items []string
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.local, err)
			}
			row[f.remote] = strings.Join(items, ", ")
		case kindJSON:
			row[f.remote] = string(raw)
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.local, err)
			}
			row[f.remote] = v
		}
	}
	return row, nil
}

// decode converts a remote row back into the record's JSON shape and
// unmarshals it into out. Missing or empty remote values keep zero values.
func (c *codec) decode(raw json.RawMessage, out any) error {
	var row map[string]json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		return fmt.Errorf("failed to decode remote row: %w", err)
	}

	local := make(map[string]json.RawMessage, len(c.fields)+1)
	if id, ok := row[idField]; ok {
		local["id"] = id
	}
	for _, f := range c.fields {
		v, ok := row[f.remote]
		if !ok || string(v) == "null" {
			continue
		}
		converted, keep, err := convert(f, v)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.remote, err)
		}
		if keep {
			local[f.local] = converted
		}
	}

	data, err := json.Marshal(local)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode remote row: %w", err)
	}
	return nil
}

func convert(f field, v json.RawMessage) (json.RawMessage, bool, error) {
	switch f.kind {
	case kindRef:
		// Lookup fields come back as {"Id": 3, "Name": "..."}.
		if len(v) > 0 && v[0] == '{' {
			var ref struct {
				ID json.RawMessage `json:"Id"`
			}
			if err := json.Unmarshal(v, &ref); err != nil {
				return nil, false, err
			}
			return ref.ID, ref.ID != nil, nil
		}
		return v, true, nil
	case kindList:
		if len(v) > 0 && v[0] == '[' {
			return v, true, nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, false, err
		}
		items := []string{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		out, err := json.Marshal(items)
		return out, true, err
	case kindJSON:
		if len(v) > 0 && v[0] != '"' {
			return v, true, nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, false, nil
		}
		return json.RawMessage(s), true, nil
	case kindTime:
		var s string
		if err := json.Unmarshal(v, &s); err != nil || s == "" {
			return nil, false, nil
		}
		return v, true, nil
	default:
		return v, true, nil
	}
}
