package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fleetdeck/fleetdeck/pkg/domain"
)

func envelopeJSON(data any) []byte {
	b, _ := json.Marshal(map[string]any{"success": true, "data": data}) //nolint:errcheck
	return b
}

func TestGetUnwrapsEnvelopeData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/trackers/car1" {
			http.NotFound(w, r)
			return
		}
		w.Write(envelopeJSON(domain.Tracker{ID: "car1", Name: "Delivery 1", Status: domain.TrackerActive})) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	tracker, err := c.GetTracker(context.Background(), "car1")
	if err != nil {
		t.Fatalf("GetTracker() error: %v", err)
	}
	if tracker.Name != "Delivery 1" {
		t.Errorf("Name = %q, want %q", tracker.Name, "Delivery 1")
	}
	if tracker.Status != domain.TrackerActive {
		t.Errorf("Status = %q, want %q", tracker.Status, domain.TrackerActive)
	}
}

func TestGetLegacyBodyPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// No success key: the raw body is the payload.
		json.NewEncoder(w).Encode([]domain.Tracker{{ID: "van7"}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	trackers, err := c.ListTrackers(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTrackers() error: %v", err)
	}
	if len(trackers) != 1 || trackers[0].ID != "van7" {
		t.Errorf("trackers = %+v, want one entry with ID van7", trackers)
	}
}

func TestEnvelopeFailureBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"error":{"code":"invalid_geofence","message":"radius too small","fields":{"radiusM":"must be at least 50"}},"requestId":"req-123"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateGeofence(context.Background(), CreateGeofenceRequest{Name: "depot"})
	if err == nil {
		t.Fatal("expected error for success:false envelope")
	}
	var cerr *Error
	if !asError(err, &cerr) {
		t.Fatalf("error type = %T, want *client.Error", err)
	}
	if cerr.Message != "radius too small" {
		t.Errorf("Message = %q, want %q", cerr.Message, "radius too small")
	}
	if cerr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", cerr.Status, http.StatusUnprocessableEntity)
	}
	if cerr.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want %q", cerr.RequestID, "req-123")
	}
	if cerr.Detail == nil || cerr.Detail.Fields["radiusM"] != "must be at least 50" {
		t.Errorf("Detail = %+v, want field message for radiusM", cerr.Detail)
	}
	if !IsValidation(err) {
		t.Error("IsValidation() = false, want true")
	}
}

func TestNoContentLeavesOutUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
		w.Write([]byte("ignored trailing junk")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	out := map[string]string{}
	if err := c.Get(context.Background(), "/api/anything", nil, &out); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("out = %v, want empty", out)
	}
}

func TestQueryOmitsNilValues(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListTrackers(context.Background(), Query{"status": nil, "limit": 25})
	if err != nil {
		t.Fatalf("ListTrackers() error: %v", err)
	}
	if gotQuery != "limit=25" {
		t.Errorf("query = %q, want %q", gotQuery, "limit=25")
	}
}

func TestQueryAllNilYieldsNoQueryString(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.ListAlerts(context.Background(), Query{"trackerId": nil}); err != nil {
		t.Fatalf("ListAlerts() error: %v", err)
	}
	if strings.Contains(gotURL, "?") {
		t.Errorf("URL = %q, want no query string", gotURL)
	}
}

func TestTimeoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithTimeout(50*time.Millisecond))
	err := c.Get(context.Background(), "/api/slow", nil, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var cerr *Error
	if !asError(err, &cerr) {
		t.Fatalf("error type = %T, want *client.Error", err)
	}
	if cerr.Message != "Request timeout" {
		t.Errorf("Message = %q, want %q", cerr.Message, "Request timeout")
	}
	if !IsTimeout(err) {
		t.Error("IsTimeout() = false, want true")
	}
}

func TestConnectionFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL)
	err := c.Get(context.Background(), "/api/trackers", nil, nil)
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !IsNetwork(err) {
		t.Errorf("IsNetwork() = false for %v, want true", err)
	}
}

func TestAuthHeaderOnlyWithToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Get(context.Background(), "/api/open", nil, nil); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty without a token", gotAuth)
	}

	c.SetTokenSource(StaticToken("tok-1"))
	if err := c.Get(context.Background(), "/api/open", nil, nil); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-1")
	}
}

func TestNonEnvelopeErrorBodyMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"database unavailable"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Get(context.Background(), "/api/trackers", nil, nil)
	var cerr *Error
	if !asError(err, &cerr) {
		t.Fatalf("error type = %T, want *client.Error", err)
	}
	if cerr.Message != "database unavailable" {
		t.Errorf("Message = %q, want %q", cerr.Message, "database unavailable")
	}
}

func TestUnknownStatusGetsGeneratedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(599)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Get(context.Background(), "/api/trackers", nil, nil)
	var cerr *Error
	if !asError(err, &cerr) {
		t.Fatalf("error type = %T, want *client.Error", err)
	}
	if cerr.Message != "HTTP Error: 599" {
		t.Errorf("Message = %q, want %q", cerr.Message, "HTTP Error: 599")
	}
}

func TestUnauthorizedIsAuthKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":{"message":"token expired"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Me(context.Background())
	if !IsAuth(err) {
		t.Errorf("IsAuth() = false for %v, want true", err)
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("IsStatus(401) = false for %v, want true", err)
	}
}

func TestNonJSONSuccessBodyIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OK")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	var out domain.Tracker
	if err := c.Get(context.Background(), "/api/ping", nil, &out); err != nil {
		t.Fatalf("Get() error: %v, want parse failure swallowed", err)
	}
	if out.ID != "" {
		t.Errorf("out.ID = %q, want zero value", out.ID)
	}
}

func TestVerbsUseCorrectMethods(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte(`{"success":true}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	calls := []struct {
		name string
		call func() error
		want string
	}{
		{"Get", func() error { return c.Get(context.Background(), "/x", nil, nil) }, http.MethodGet},
		{"Post", func() error { return c.Post(context.Background(), "/x", nil, nil) }, http.MethodPost},
		{"Put", func() error { return c.Put(context.Background(), "/x", map[string]string{}, nil) }, http.MethodPut},
		{"Patch", func() error { return c.Patch(context.Background(), "/x", map[string]string{}, nil) }, http.MethodPatch},
		{"Delete", func() error { return c.Delete(context.Background(), "/x", nil, nil) }, http.MethodDelete},
	}
	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s error: %v", tt.name, err)
			}
			if gotMethod != tt.want {
				t.Errorf("method = %q, want %q", gotMethod, tt.want)
			}
		})
	}
}
