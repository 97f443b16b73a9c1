package Identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"MediFlow/ApiClient"
)

var ErrSyncFailed = errors.New("no se pudo sincronizar el usuario en el backend")

// Authenticator is implemented by FirebaseProvider
type Authenticator interface {
	Provider
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	UpdateDisplayName(ctx context.Context, name string) error
}

// Registrar is the backend side of account creation
type Registrar interface {
	SyncFirebase(ctx context.Context, idToken string) (ApiClient.MessageResponse, error)
	SyncFirebaseUser(ctx context.Context, body ApiClient.SyncFirebaseUserRequest) error
}

type Registration struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Name     string `validate:"required"`
	Rol      string
	DNI      string
	Area     string
	Cargo    string
}

// Login signs in and syncs the fresh identity token with the backend
func Login(ctx context.Context, auth Authenticator, backend Registrar, email, password string) error {
	if err := auth.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("login fallido: %w", err)
	}
	return syncToken(ctx, auth, backend)
}

// Register creates the account, stores the profile in the backend and syncs
// the identity token. A display name failure is ignored.
func Register(ctx context.Context, auth Authenticator, backend Registrar, in Registration) error {
	if err := auth.SignUp(ctx, in.Email, in.Password); err != nil {
		return fmt.Errorf("error al crear usuario: %w", err)
	}
	_ = auth.UpdateDisplayName(ctx, in.Name)

	uid, ok := auth.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}
	nombre, apellido := SplitName(in.Name)
	body := ApiClient.SyncFirebaseUserRequest{
		UIDFirebase: uid,
		Nombre:      nombre,
		Apellido:    apellido,
		Rol:         optional(in.Rol),
		DNI:         optional(in.DNI),
		Area:        optional(in.Area),
		Cargo:       optional(in.Cargo),
	}
	if err := backend.SyncFirebaseUser(ctx, body); err != nil {
		return fmt.Errorf("error al sincronizar datos adicionales: %w", err)
	}
	return syncToken(ctx, auth, backend)
}

// SplitName uses the first word as nombre and the rest as apellido
func SplitName(name string) (*string, *string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return nil, nil
	}
	return optional(parts[0]), optional(strings.Join(parts[1:], " "))
}

func syncToken(ctx context.Context, auth Provider, backend Registrar) error {
	token, err := auth.IDToken(ctx, true)
	if err != nil || token == "" {
		return fmt.Errorf("no se obtuvo token de Firebase: %w", ErrNotAuthenticated)
	}
	if _, err := backend.SyncFirebase(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
