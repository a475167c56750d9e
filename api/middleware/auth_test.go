package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/auth"
	"github.com/marcuschung/assetflow-backend/pkg/authz"
	"github.com/marcuschung/assetflow-backend/pkg/config"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "assetflow-test", ExpirationMinutes: 60}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.ActorRole, superuser bool) (uuid.UUID, string) {
	t.Helper()
	actorID := uuid.New()
	token, err := auth.MintActorToken(cfg, time.Now(), auth.ActorTokenPayload{
		ActorID:   actorID,
		Role:      role,
		Superuser: superuser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return actorID, token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	cfg.ExpirationMinutes = 1
	_, token := mintTestTokenAt(t, cfg, time.Now().Add(-time.Hour))

	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func mintTestTokenAt(t *testing.T, cfg config.JWTConfig, issuedAt time.Time) (uuid.UUID, string) {
	t.Helper()
	actorID := uuid.New()
	token, err := auth.MintActorToken(cfg, issuedAt, auth.ActorTokenPayload{
		ActorID: actorID,
		Role:    enums.ActorRoleOperator,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return actorID, token
}

func TestAuthSeedsActorContext(t *testing.T) {
	cfg := testJWTConfig()
	actorID, token := mintTestToken(t, cfg, enums.ActorRoleApprover, true)

	var captured authz.Actor
	var capturedErr error
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, capturedErr = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if capturedErr != nil {
		t.Fatalf("actor from context: %v", capturedErr)
	}
	if captured.ID != actorID {
		t.Fatalf("expected actor id %s got %s", actorID, captured.ID)
	}
	if captured.Role != enums.ActorRoleApprover {
		t.Fatalf("unexpected role %s", captured.Role)
	}
	if !captured.Superuser {
		t.Fatal("superuser flag dropped")
	}
}

func TestActorFromContextRejectsMissingClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := ActorFromContext(req.Context()); err == nil {
		t.Fatal("expected unauthorized error for empty context")
	}
}

func TestWithActorRoundTrip(t *testing.T) {
	actor := authz.Actor{ID: uuid.New(), Role: enums.ActorRoleAdministrator, Superuser: true}
	ctx := WithActor(httptest.NewRequest(http.MethodGet, "/", nil).Context(), actor)

	got, err := ActorFromContext(ctx)
	if err != nil {
		t.Fatalf("actor from context: %v", err)
	}
	if got != actor {
		t.Fatalf("expected %+v got %+v", actor, got)
	}
}
