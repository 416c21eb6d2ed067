package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"puntoazul/internal/repository"
	"puntoazul/internal/service"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageLocales = `[
  {
    "codigo_local": "PA-01",
    "nombre": "Punto Azul Miraflores",
    "imagen": {"url": "https://cdn.example/pa01.jpg"},
    "location": "Av. Larco 123",
    "inicio_reserva": "13:00",
    "fin_reserva": "15:30",
    "dias_disponibles": ["lunes", "martes"],
    "nro_reservas_max": "20",
    "cantidad_personas_max": "8",
    "atencion_hasta_x_hora": "17:00",
    "fechas_no_disponibles": false
  },
  {
    "codigo_local": "PA-02",
    "nombre": "Punto Azul San Isidro",
    "location": "Calle Las Begonias 441",
    "inicio_reserva": "12:00",
    "fin_reserva": "22:00",
    "dias_disponibles": ["viernes"],
    "nro_reservas_max": 40,
    "cantidad_personas_max": 10,
    "atencion_hasta_x_hora": "23:00",
    "fechas_no_disponibles": []
  }
]`

// fakeWordPress answers the three endpoints the panel uses and keeps the last saved repeater.
type fakeWordPress struct {
	mu      sync.Mutex
	locales json.RawMessage
	saves   int
}

func (f *fakeWordPress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Basic "+repository.BasicToken("editor", "app pass") {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"rest_not_logged_in"}`))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/wp/v2/users/me":
		w.Write([]byte(`{"id":7,"name":"editor"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/acf/v3/pages/984":
		json.NewEncoder(w).Encode(map[string]any{"acf": map[string]any{"locales": f.locales}})
	case r.Method == http.MethodPost && r.URL.Path == "/acf/v3/pages/984":
		var body struct {
			Fields struct {
				Locales json.RawMessage `json:"locales"`
			} `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.locales = body.Fields.Locales
		f.saves++
		w.Write([]byte(`{"acf":{}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeWordPress) saved(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(f.locales, &out))
	return out
}

type testServer struct {
	wp     *fakeWordPress
	router http.Handler
}

func newTestServer(t *testing.T, loginPerMin int) *testServer {
	t.Helper()
	wp := &fakeWordPress{locales: json.RawMessage(pageLocales)}
	backend := httptest.NewServer(wp)
	t.Cleanup(backend.Close)

	creds := repository.NewMemoryCredentialProvider(repository.NewSealer("test-key"))
	authSvc := service.NewAuthService(repository.NewWPAuthRepository(backend.URL, 2*time.Second), creds, "test-secret", time.Hour)
	venues := service.NewVenueService(repository.NewACFRepository(backend.URL, 984, 2*time.Second), nil)
	return &testServer{
		wp:     wp,
		router: NewRouter(RouterConfig{Auth: authSvc, Venues: venues, LoginRatePerMin: loginPerMin}),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "editor", Password: "app pass"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 10)
	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, 10)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "editor", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"auth_error"`)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "editor"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")

	token := s.login(t)
	rec = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"editor"`)
	assert.NotContains(t, rec.Body.String(), repository.BasicToken("editor", "app pass"))
}

func TestLogoutInvalidatesToken(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/venues", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "editor", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "editor", Password: "app pass"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"rate_limited"`)
}

func TestVenuesRequireSession(t *testing.T) {
	s := newTestServer(t, 10)
	rec := s.do(t, http.MethodGet, "/api/venues", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/venues", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListAndGetVenue(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodGet, "/api/venues", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total  int  `json:"total"`
		Dirty  bool `json:"dirty"`
		Venues []struct {
			Code             string `json:"code"`
			Image            string `json:"image"`
			ReservationStart string `json:"reservation_start"`
			ReservationEnd   string `json:"reservation_end"`
		} `json:"venues"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 2, list.Total)
	assert.False(t, list.Dirty)
	assert.Equal(t, "1:00 pm", list.Venues[0].ReservationStart)
	assert.Equal(t, "3:30 pm", list.Venues[0].ReservationEnd)
	assert.Equal(t, "https://cdn.example/pa01.jpg", list.Venues[0].Image)

	rec = s.do(t, http.MethodGet, "/api/venues/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"PA-02"`)

	rec = s.do(t, http.MethodGet, "/api/venues/9", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchVenue(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	start := "13:30"
	party := 60
	rec := s.do(t, http.MethodPatch, "/api/venues/0", token, VenuePatchRequest{
		ReservationStart:  &start,
		MaxPartySize:      &party,
		AvailableWeekdays: []string{"Sábado", "lunes"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail struct {
		Venue struct {
			ReservationStart  string   `json:"reservation_start"`
			MaxPartySize      int      `json:"max_party_size"`
			AvailableWeekdays []string `json:"available_weekdays"`
		} `json:"venue"`
		Issues []struct {
			Field    string `json:"field"`
			Severity string `json:"severity"`
		} `json:"issues"`
	}
	decodeBody(t, rec, &detail)
	assert.Equal(t, "1:30 pm", detail.Venue.ReservationStart)
	assert.Equal(t, 60, detail.Venue.MaxPartySize)
	assert.Equal(t, []string{"lunes", "Sábado"}, detail.Venue.AvailableWeekdays)
	require.NotEmpty(t, detail.Issues)
	assert.Equal(t, "max_party_size", detail.Issues[0].Field)

	// an out of range capacity blocks the save
	rec = s.do(t, http.MethodPost, "/api/venues/save", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "PA-01")

	rec = s.do(t, http.MethodPatch, "/api/venues/0", token, map[string]any{"available_weekdays": []string{""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockFullDaySaveReload(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPut, "/api/venues/0/blocked-dates/2025-03-10", token, map[string]any{"full_day": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"date":"03/10/2025"`)
	assert.Contains(t, rec.Body.String(), `"display":"10/03/2025"`)

	// same date in the other format replaces, not duplicates
	rec = s.do(t, http.MethodPut, "/api/venues/0/blocked-dates/2025-03-10", token, map[string]any{"full_day": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/venues/save", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Venues   int  `json:"venues"`
		Blocked  int  `json:"blocked"`
		Reloaded bool `json:"reloaded"`
	}
	decodeBody(t, rec, &result)
	assert.Equal(t, 2, result.Venues)
	assert.Equal(t, 1, result.Blocked)
	assert.True(t, result.Reloaded)

	saved := s.wp.saved(t)
	require.Len(t, saved, 2)
	assert.Equal(t, "13:00", saved[0]["inicio_reserva"])
	assert.Equal(t, "15:30", saved[0]["fin_reserva"])
	assert.Equal(t, "20", saved[0]["nro_reservas_max"])
	assert.NotContains(t, saved[0], "imagen")
	blocked := saved[0]["fechas_no_disponibles"].([]any)
	require.Len(t, blocked, 1)
	assert.Equal(t, map[string]any{"fecha_bloq": "03/10/2025", "horas": false}, blocked[0])

	rec = s.do(t, http.MethodGet, "/api/venues/0/blocked-dates", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dates []struct {
		Date string `json:"date"`
		Kind string `json:"kind"`
	}
	decodeBody(t, rec, &dates)
	require.Len(t, dates, 1)
	assert.Equal(t, "03/10/2025", dates[0].Date)
	assert.Equal(t, "full_day", dates[0].Kind)

	rec = s.do(t, http.MethodDelete, "/api/venues/0/blocked-dates/03/10/2025", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/venues/0/blocked-dates/2025-03-10", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/venues/0/blocked-dates/2025-03-10", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPutBlockedDateRejectsOverlap(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPut, "/api/venues/1/blocked-dates/2025-04-01", token, map[string]any{
		"full_day": false,
		"intervals": []map[string]string{
			{"start": "1:00 pm", "end": "3:00 pm"},
			{"start": "2:00 pm", "end": "4:00 pm"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rule":"overlap"`)

	rec = s.do(t, http.MethodPut, "/api/venues/1/blocked-dates/not-a-date", token, map[string]any{"full_day": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"format_error"`)
}

func TestEditSessionFlow(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/venues/0/blocked-dates/2025-05-02/session", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view struct {
		ID        string `json:"id"`
		State     string `json:"state"`
		Mode      string `json:"mode"`
		Intervals []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"intervals"`
	}
	decodeBody(t, rec, &view)
	assert.Equal(t, "open", view.State)
	assert.Equal(t, "partial_day", view.Mode)
	assert.Empty(t, view.Intervals)
	base := "/api/sessions/" + view.ID

	rec = s.do(t, http.MethodPost, base+"/commit", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rule":"empty_set"`)

	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodPost, base+"/intervals", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	decodeBody(t, rec, &view)
	require.Len(t, view.Intervals, 2)
	assert.Equal(t, "10:00 am", view.Intervals[0].Start)

	rec = s.do(t, http.MethodPost, base+"/commit", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rule":"overlap"`)

	// still open after a failed commit
	rec = s.do(t, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"open"`)

	rec = s.do(t, http.MethodPut, base+"/intervals/1", token, IntervalRequest{Start: "11:00 am", End: "12:00 pm"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/commit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"state":"committed"`)

	rec = s.do(t, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/venues/0/blocked-dates", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"05/02/2025"`)
	assert.Contains(t, rec.Body.String(), `"kind":"partial_day"`)

	rec = s.do(t, http.MethodGet, "/api/venues", token, nil)
	assert.Contains(t, rec.Body.String(), `"dirty":true`)
}

func TestEditSessionFullDayAndDiscard(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/venues/1/blocked-dates/2025-06-01/session", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &view)
	base := "/api/sessions/" + view.ID

	rec = s.do(t, http.MethodPut, base+"/full-day", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, base+"/full-day", token, FullDayRequest{FullDay: boolPtr(true)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"full_day"`)

	rec = s.do(t, http.MethodDelete, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"discarded"`)

	rec = s.do(t, http.MethodGet, "/api/venues/1/blocked-dates", token, nil)
	assert.Equal(t, "[]\n", rec.Body.String())
	rec = s.do(t, http.MethodGet, "/api/venues", token, nil)
	assert.Contains(t, rec.Body.String(), `"dirty":false`)
}

func TestOptions(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodGet, "/api/options", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var opts struct {
		Times    []string `json:"times"`
		Weekdays []struct {
			Key string `json:"key"`
		} `json:"weekdays"`
	}
	decodeBody(t, rec, &opts)
	assert.Equal(t, "8:00 am", opts.Times[0])
	assert.Equal(t, "11:30 pm", opts.Times[len(opts.Times)-1])
	require.Len(t, opts.Weekdays, 7)
	assert.Equal(t, "lunes", opts.Weekdays[0].Key)
}

func TestHistoryDisabled(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)
	rec := s.do(t, http.MethodGet, "/api/history", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/history?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func boolPtr(b bool) *bool { return &b }
