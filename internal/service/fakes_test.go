package service

import (
	"context"
	"encoding/json"
	"puntoazul/internal/db"
	"puntoazul/internal/entities"
	apperrors "puntoazul/internal/errors"
	"puntoazul/internal/repository"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleLocales = `[
  {
    "codigo_local": "PA-01",
    "nombre": "Punto Azul Miraflores",
    "imagen": "https://cdn.example/pa01.jpg",
    "location": "Av. Larco 123",
    "inicio_reserva": "13:00",
    "fin_reserva": "15:30",
    "dias_disponibles": ["lunes", "martes"],
    "nro_reservas_max": "20",
    "cantidad_personas_max": "8",
    "atencion_hasta_x_hora": "17:00",
    "fechas_no_disponibles": [{"fecha_bloq": "2025-03-12", "horas": [{"hora_inicio": "13:00", "hora_fin": "14:00"}]}]
  },
  {
    "codigo_local": "PA-02",
    "nombre": "Punto Azul San Isidro",
    "location": "Calle Las Begonias 441",
    "inicio_reserva": "12:00",
    "fin_reserva": "22:00",
    "dias_disponibles": false,
    "nro_reservas_max": 40,
    "cantidad_personas_max": 10,
    "atencion_hasta_x_hora": "23:00",
    "fechas_no_disponibles": false
  },
  {"nombre": "sin codigo"}
]`

// fakeACF serves whatever was last saved, like the real page does.
type fakeACF struct {
	mu       sync.Mutex
	records  []json.RawMessage
	fetches  int
	saves    int
	fetchErr error
	saveErr  error
	started  chan struct{}
	release  chan struct{}

	lastSaved []byte
}

func newFakeACF(t *testing.T) *fakeACF {
	t.Helper()
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(sampleLocales), &raw))
	return &fakeACF{records: raw}
}

func (f *fakeACF) FetchVenues(_ context.Context, token string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]json.RawMessage(nil), f.records...), nil
}

func (f *fakeACF) SaveVenues(_ context.Context, token string, records []entities.WireRecord) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.lastSaved, _ = json.Marshal(records)

	// WordPress keeps fields the request leaves out, such as imagen.
	images := map[string]json.RawMessage{}
	for _, old := range f.records {
		var fields map[string]json.RawMessage
		if json.Unmarshal(old, &fields) != nil {
			continue
		}
		var code string
		json.Unmarshal(fields["codigo_local"], &code)
		if img, ok := fields["imagen"]; ok {
			images[code] = img
		}
	}

	f.records = f.records[:0:0]
	for _, rec := range records {
		body, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if img, ok := images[rec.Code]; ok {
			var fields map[string]json.RawMessage
			json.Unmarshal(body, &fields)
			fields["imagen"] = img
			body, _ = json.Marshal(fields)
		}
		f.records = append(f.records, body)
	}
	return nil
}

func (f *fakeACF) counts() (fetches, saves int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, f.saves
}

type fakeWP struct {
	valid string
}

func (f *fakeWP) Me(_ context.Context, token string) (*repository.WPUser, error) {
	if token != f.valid {
		return nil, apperrors.Auth("invalid credentials", nil)
	}
	return &repository.WPUser{ID: 1, Name: "Editor"}, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	rows    []db.SaveRecord
	pruned  time.Time
	nextErr error
}

func (f *fakeHistory) Insert(_ context.Context, rec db.SaveRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextErr != nil {
		return 0, f.nextErr
	}
	rec.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, rec)
	return rec.ID, nil
}

func (f *fakeHistory) List(_ context.Context, limit int) ([]entities.SaveSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entities.SaveSummary{}
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		r := f.rows[i]
		out = append(out, entities.SaveSummary{ID: r.ID, Username: r.Username, VenueCount: r.VenueCount, BlockedCount: r.BlockedCount})
	}
	return out, nil
}

func (f *fakeHistory) Prune(_ context.Context, cutoff time.Time) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = cutoff
	return []int64{1}, nil
}

func testSession() *Session {
	return &Session{ID: "session-1", Username: "editor", BasicToken: "dG9rZW4="}
}
