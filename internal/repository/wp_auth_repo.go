package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	apperrors "puntoazul/internal/errors"
	"time"
)

// WPUser is the subset of /wp/v2/users/me the panel shows.
type WPUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type WPAuthRepository interface {
	Me(ctx context.Context, token string) (*WPUser, error)
}

type wpAuthRepository struct {
	baseURL string
	client  *http.Client
}

func NewWPAuthRepository(baseURL string, timeout time.Duration) WPAuthRepository {
	return &wpAuthRepository{baseURL: baseURL, client: newHTTPClient(timeout)}
}

// Me checks the Basic token against WordPress. Any non-2xx answer is an AuthError.
func (r *wpAuthRepository) Me(ctx context.Context, token string) (*WPUser, error) {
	ctx, cancel := context.WithTimeout(ctx, r.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/wp/v2/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+token)

	resp, err := do(r.client, req, "verify credentials")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, apperrors.Auth("invalid credentials", fmt.Errorf("users/me: %s", readErrorBody(resp)))
	}

	var user WPUser
	// Solo nos interesa que la respuesta sea 2xx; el cuerpo es opcional.
	_ = json.NewDecoder(resp.Body).Decode(&user)
	return &user, nil
}
