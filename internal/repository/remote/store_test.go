package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

// fakeAPI is an in-process stand-in for the hosted record API.
type fakeAPI struct {
	mu      sync.Mutex
	tables  map[string]map[int64]map[string]any
	nextID  int64
	fetches int
	updates int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tables: map[string]map[int64]map[string]any{}}
}

func (f *fakeAPI) row(table string, id int64) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables[table][id]
}

func (f *fakeAPI) put(table string, id int64, row map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables[table] == nil {
		f.tables[table] = map[int64]map[string]any{}
	}
	row[idField] = id
	f.tables[table][id] = row
	if id > f.nextID {
		f.nextID = id
	}
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer pk-test" || r.Header.Get(projectHeader) != "proj" {
		reply(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "unauthorized"})
		return
	}

	// /projects/proj/tables/{table}/records[/...]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 5 {
		reply(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	table := parts[3]
	rest := parts[5:]

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables[table] == nil {
		f.tables[table] = map[int64]map[string]any{}
	}
	rows := f.tables[table]

	var body struct {
		Records   []map[string]any `json:"records"`
		RecordIDs []int64          `json:"RecordIds"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch {
	case r.Method == http.MethodPost && len(rest) == 1 && rest[0] == "fetch":
		data := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			data = append(data, row)
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "data": data})

	case r.Method == http.MethodPost && len(rest) == 2 && rest[1] == "fetch":
		f.fetches++
		id, _ := strconv.ParseInt(rest[0], 10, 64)
		row, ok := rows[id]
		if !ok {
			reply(w, http.StatusNotFound, map[string]any{"success": false, "message": "Record not found"})
			return
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "data": row})

	case r.Method == http.MethodPost && len(rest) == 0:
		results := make([]map[string]any, 0, len(body.Records))
		for _, rec := range body.Records {
			f.nextID++
			rec[idField] = f.nextID
			rows[f.nextID] = rec
			results = append(results, map[string]any{"success": true, "data": map[string]any{"Id": f.nextID}})
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "results": results})

	case r.Method == http.MethodPut:
		f.updates++
		results := make([]map[string]any, 0, len(body.Records))
		for _, rec := range body.Records {
			id := int64(rec[idField].(float64))
			existing, ok := rows[id]
			if !ok {
				results = append(results, map[string]any{"success": false, "message": "missing"})
				continue
			}
			for k, v := range rec {
				existing[k] = v
			}
			results = append(results, map[string]any{"success": true, "data": existing})
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "results": results})

	case r.Method == http.MethodDelete:
		results := make([]map[string]any, 0, len(body.RecordIDs))
		for _, id := range body.RecordIDs {
			delete(rows, id)
			results = append(results, map[string]any{"success": true})
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "results": results})

	default:
		reply(w, http.StatusBadRequest, map[string]any{"success": false, "message": "unsupported"})
	}
}

var fixedNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	client := NewClient(Config{BaseURL: srv.URL, ProjectID: "proj", PublicKey: "pk-test", Timeout: time.Second})
	return api, client
}

func TestRemoteName(t *testing.T) {
	assert.Equal(t, "patient_id_c", RemoteName("patientId"))
	assert.Equal(t, "years_experience_c", RemoteName("yearsExperience"))
	assert.Equal(t, "status_c", RemoteName("status"))
}

func TestStore_DoctorFieldMapping(t *testing.T) {
	api, client := setup(t)
	s := NewStore[model.Doctor](client, model.CollectionDoctors, Options{Now: func() time.Time { return fixedNow }})
	ctx := context.Background()

	created, err := s.Create(ctx, &model.Doctor{
		Name:           "Dr. Grey",
		Specialty:      "Cardiology",
		Certifications: []string{"ACLS", "BLS"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	row := api.row("doctor_c", created.ID)
	require.NotNil(t, row)
	assert.Equal(t, "Dr. Grey", row["Name"])
	assert.Equal(t, "Cardiology", row["specialty_c"])
	assert.Equal(t, "ACLS, BLS", row["certifications_c"])
	assert.Equal(t, "Active", row["status_c"])
	assert.Equal(t, "2024-06-10", row["joined_date_c"])

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created, got)
}

func TestStore_LookupAndNestedFields(t *testing.T) {
	api, client := setup(t)
	api.put("appointment_c", 4, map[string]any{
		"patient_id_c": map[string]any{"Id": 3, "Name": "Ada Lovelace"},
		"doctor_id_c":  2,
		"date_c":       "2024-06-12",
		"time_c":       "10:30",
		"status_c":     "Scheduled",
	})
	api.put("treatment_plan_c", 1, map[string]any{
		"patient_id_c": 3,
		"title_c":      "Rehab",
		"milestones_c": `[{"id":1,"title":"Week 1","status":"pending"}]`,
	})
	ctx := context.Background()

	appts := NewStore[model.Appointment](client, model.CollectionAppointments, Options{})
	appt, err := appts.Get(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, int64(3), appt.PatientID)
	assert.Equal(t, int64(2), appt.DoctorID)
	assert.Equal(t, "10:30", appt.Time)

	plans := NewStore[model.TreatmentPlan](client, model.CollectionTreatmentPlans, Options{})
	plan, err := plans.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, plan.Milestones, 1)
	assert.Equal(t, "Week 1", plan.Milestones[0].Title)
}

func TestStore_ListNewestFirst(t *testing.T) {
	_, client := setup(t)
	s := NewStore[model.Patient](client, model.CollectionPatients, Options{})
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := s.Create(ctx, &model.Patient{FirstName: name, LastName: "X"})
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "C", list[0].FirstName)
	assert.Equal(t, "A", list[2].FirstName)
}

func TestStore_CacheInvalidation(t *testing.T) {
	api, client := setup(t)
	s := NewStore[model.Patient](client, model.CollectionPatients, Options{CacheTTL: time.Minute})
	ctx := context.Background()

	api.put("patient_c", 1, map[string]any{"first_name_c": "Ada", "last_name_c": "Lovelace", "phone_c": "555"})

	_, err := s.Get(ctx, 1)
	require.NoError(t, err)
	_, err = s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, api.fetches, "second read is served from cache")

	updated, err := s.Update(ctx, 1, []byte(`{"phone":"777"}`))
	require.NoError(t, err)
	assert.Equal(t, "777", updated.Phone)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "777", api.row("patient_c", 1)["phone_c"])

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "777", got.Phone)

	_, err = s.Delete(ctx, 1)
	require.NoError(t, err)
	got, err = s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.Update(ctx, 1, []byte(`{"phone":"1"}`))
	assert.True(t, errors.IsNotFound(err))
	_, err = s.Delete(ctx, 1)
	assert.True(t, errors.IsNotFound(err))
}

func TestStore_IDDependentDefaultsWrittenBack(t *testing.T) {
	api, client := setup(t)
	s := NewStore[model.BillingRecord](client, model.CollectionBilling, Options{Now: func() time.Time { return fixedNow }})

	created, err := s.Create(context.Background(), &model.BillingRecord{
		PatientID: 3,
		Items:     []model.LineItem{{Description: "Consult", Quantity: 2, UnitPrice: 50}},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0001", created.InvoiceNumber)
	assert.Equal(t, 100.0, created.Amount)
	assert.Equal(t, 1, api.updates)

	row := api.row("billing_c", created.ID)
	assert.Equal(t, "INV-2024-0001", row["invoice_number_c"])
	assert.Contains(t, row["items_c"], `"description":"Consult"`)
}

func TestClient_RejectsBadCredentials(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, ProjectID: "proj", PublicKey: "wrong"})
	s := NewStore[model.Patient](client, model.CollectionPatients, Options{})
	_, err := s.List(context.Background())
	assert.Error(t, err)
}
