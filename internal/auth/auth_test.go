package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admission-service/internal/domain"
	apperrors "github.com/spec-kit/admission-service/pkg/util"
)

func testApp(tm *TokenManager, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.SubjectID)
	})
	app.Get("/", handlers...)
	return app
}

func bearer(t *testing.T, tm *TokenManager, id string, kind domain.SubjectType, role *domain.StaffRole) string {
	t.Helper()
	tok, _, err := tm.GenerateToken(id, kind, role)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestParseTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	role := domain.StaffRoleGate

	tok, expires, err := tm.GenerateToken("staff-1", domain.SubjectTypeStaff, &role)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, 5*time.Second)

	claims, err := tm.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.Subject)
	assert.Equal(t, domain.SubjectTypeStaff, claims.Kind)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.StaffRoleGate, *claims.Role)
}

func TestParseTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	issuer := NewTokenManager("one", 5)
	tok, _, err := issuer.GenerateToken("v-1", domain.SubjectTypeVisitor, nil)
	require.NoError(t, err)

	_, err = NewTokenManager("two", 5).ParseToken(tok)
	assert.Error(t, err)

	later := NewTokenManager("one", 5)
	later.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = later.ParseToken(tok)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := testApp(tm)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"unknown kind", bearer(t, tm, "x", domain.SubjectType("ROBOT"), nil), http.StatusUnauthorized},
		{"visitor", bearer(t, tm, "v-1", domain.SubjectTypeVisitor, nil), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireStaffRole(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := testApp(tm, RequireStaffRole(domain.StaffRoleAdmin))
	admin := domain.StaffRoleAdmin
	gate := domain.StaffRoleGate

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"visitor", bearer(t, tm, "v-1", domain.SubjectTypeVisitor, nil), http.StatusForbidden},
		{"staff without role", bearer(t, tm, "s-0", domain.SubjectTypeStaff, nil), http.StatusForbidden},
		{"gate staff", bearer(t, tm, "s-1", domain.SubjectTypeStaff, &gate), http.StatusForbidden},
		{"admin staff", bearer(t, tm, "s-2", domain.SubjectTypeStaff, &admin), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(fiber.HeaderAuthorization, tc.header)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireVisitor(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := testApp(tm, RequireVisitor())
	gate := domain.StaffRoleGate

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, tm, "s-1", domain.SubjectTypeStaff, &gate))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
