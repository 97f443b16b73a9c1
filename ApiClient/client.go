package ApiClient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenSource provides the bearer token attached to backend calls
type TokenSource interface {
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
}

// StatusError is returned for every non-2xx response
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s failed with status: %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s failed with status: %d (%s)", e.Method, e.Path, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	return HasStatus(err, http.StatusNotFound)
}

// HasStatus reports whether err is a StatusError with the given code
func HasStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client talks to the MediFlow backend
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	UserAgent  string
}

// New creates a client for the given base URL. tokens may be nil for
// unauthenticated use.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Tokens:     tokens,
		UserAgent:  "MediFlow-Client/1.0",
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Tokens != nil {
		token, err := c.Tokens.IDToken(ctx, false)
		if err != nil {
			return fmt.Errorf("failed to get id token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg MessageResponse
		_ = json.Unmarshal(raw, &msg)
		text := msg.Error
		if text == "" {
			text = msg.Message
		}
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: text}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if _, generic := out.(*MessageResponse); generic {
			log.Printf("api: %s %s returned a non JSON body, treating as success", method, path)
			return nil
		}
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

// SyncFirebase exchanges a Firebase ID token for a backend user record
func (c *Client) SyncFirebase(ctx context.Context, idToken string) (MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/firebase", nil, FirebaseTokenRequest{IDToken: idToken}, &out)
	return out, err
}

// SyncFirebaseUser stores profile data captured at registration
func (c *Client) SyncFirebaseUser(ctx context.Context, body SyncFirebaseUserRequest) error {
	return c.do(ctx, http.MethodPost, "/api/usuarios/sync-firebase", nil, body, &MessageResponse{})
}

// HorariosByUID lists the schedules assigned to a Firebase user
func (c *Client) HorariosByUID(ctx context.Context, uid string, vigente bool) ([]Horario, error) {
	var out []Horario
	query := url.Values{"vigente": {strconv.FormatBool(vigente)}}
	err := c.do(ctx, http.MethodGet, "/api/horarios/by-uid/"+url.PathEscape(uid), query, nil, &out)
	return out, err
}

// UsuarioByUID maps a Firebase uid to the backend user
func (c *Client) UsuarioByUID(ctx context.Context, uid string) (Usuario, error) {
	var out Usuario
	err := c.do(ctx, http.MethodGet, "/api/usuarios/by-uid/"+url.PathEscape(uid), nil, nil, &out)
	return out, err
}

func (c *Client) MarcarEntrada(ctx context.Context, body MarcarEntradaRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, http.MethodPost, "/api/asistencia/marcar", nil, body, &out)
	return out, err
}

func (c *Client) RegistrarSalida(ctx context.Context, body RegistrarSalidaRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, http.MethodPut, "/api/asistencia/salida", nil, body, &out)
	return out, err
}

func (c *Client) AsistenciaActual(ctx context.Context, userID int) (AsistenciaActual, error) {
	var out AsistenciaActual
	query := url.Values{"id_usuario": {strconv.Itoa(userID)}}
	err := c.do(ctx, http.MethodGet, "/api/asistencia/actual", query, nil, &out)
	return out, err
}

func (c *Client) EncuestasPendientes(ctx context.Context, userID int) ([]Encuesta, error) {
	var out []Encuesta
	err := c.do(ctx, http.MethodGet, "/api/encuestas/pendientes/"+strconv.Itoa(userID), nil, nil, &out)
	return out, err
}

// Encuesta returns a survey with its questions. userID fills respondida_hoy
// when greater than zero.
func (c *Client) Encuesta(ctx context.Context, id, userID int) (Encuesta, error) {
	var out Encuesta
	var query url.Values
	if userID > 0 {
		query = url.Values{"id_usuario": {strconv.Itoa(userID)}}
	}
	err := c.do(ctx, http.MethodGet, "/api/encuestas/"+strconv.Itoa(id), query, nil, &out)
	return out, err
}

func (c *Client) ResponderEncuesta(ctx context.Context, id int, body ResponderEncuestaRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, http.MethodPost, "/api/encuestas/"+strconv.Itoa(id)+"/responder", nil, body, &out)
	return out, err
}

func (c *Client) Indicadores(ctx context.Context, userID int) (Indicadores, error) {
	var out Indicadores
	err := c.do(ctx, http.MethodGet, "/api/encuestas/indicadores/"+strconv.Itoa(userID), nil, nil, &out)
	return out, err
}
