package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"puntoazul/internal/entities"
	apperrors "puntoazul/internal/errors"
	"time"
)

// ACFRepository reads and writes the `locales` field of the venues page.
type ACFRepository interface {
	FetchVenues(ctx context.Context, token string) ([]json.RawMessage, error)
	SaveVenues(ctx context.Context, token string, records []entities.WireRecord) error
}

type acfRepository struct {
	baseURL string
	pageID  int
	client  *http.Client
}

func NewACFRepository(baseURL string, pageID int, timeout time.Duration) ACFRepository {
	return &acfRepository{
		baseURL: baseURL,
		pageID:  pageID,
		client:  newHTTPClient(timeout),
	}
}

func (r *acfRepository) pageURL() string {
	return fmt.Sprintf("%s/acf/v3/pages/%d", r.baseURL, r.pageID)
}

func (r *acfRepository) FetchVenues(ctx context.Context, token string) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.pageURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := do(r.client, req, "read venues")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, apperrors.Network("read venues: "+readErrorBody(resp), nil)
	}

	var page entities.ACFPage
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.FromContext("read venues", err)
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, apperrors.Network("read venues: unexpected response body", err)
	}
	if page.ACF.Locales == nil {
		return []json.RawMessage{}, nil
	}
	return page.ACF.Locales, nil
}

func (r *acfRepository) SaveVenues(ctx context.Context, token string, records []entities.WireRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.client.Timeout)
	defer cancel()

	var update entities.ACFUpdate
	update.Fields.Locales = records
	if update.Fields.Locales == nil {
		update.Fields.Locales = []entities.WireRecord{}
	}
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode venues: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.pageURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := do(r.client, req, "save venues")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return apperrors.Network("save venues: "+readErrorBody(resp), nil)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
