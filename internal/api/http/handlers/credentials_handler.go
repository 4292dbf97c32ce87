package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admission-service/internal/api/dto"
	"github.com/spec-kit/admission-service/internal/auth"
	"github.com/spec-kit/admission-service/internal/domain"
	"github.com/spec-kit/admission-service/internal/events"
	"github.com/spec-kit/admission-service/internal/service"
	apperrors "github.com/spec-kit/admission-service/pkg/util"
)

// CredentialsHandler manages booking credential endpoints.
type CredentialsHandler struct {
	service *service.CredentialService
}

// NewCredentialsHandler constructs handler.
func NewCredentialsHandler(credentialService *service.CredentialService) *CredentialsHandler {
	return &CredentialsHandler{service: credentialService}
}

// Create POST /api/bookings.
func (h *CredentialsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCredentialRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("", "invalid payload")
	}

	credential, err := h.service.CreateCredential(c.UserContext(), service.CreateCredentialInput{
		OwnerID:      principal.SubjectID,
		MonumentID:   req.MonumentID,
		MonumentName: req.MonumentName,
		VisitDate:    req.VisitDate,
		Guests:       req.Guests,
		TotalAmount:  req.TotalAmount,
		Staged:       req.Staged,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCredentialResponse(credential)})
}

// ListMine GET /api/bookings/my-bookings.
func (h *CredentialsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	credentials, err := h.service.ListByOwner(c.UserContext(), principal.SubjectID)
	if err != nil {
		return err
	}
	items := make([]dto.CredentialResponse, 0, len(credentials))
	for i := range credentials {
		items = append(items, dto.NewCredentialResponse(&credentials[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Verify GET /api/bookings/verify/:token.
func (h *CredentialsHandler) Verify(c *fiber.Ctx) error {
	result, err := h.service.VerifyToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}

	resp := dto.VerificationResponse{
		Valid:     result.Valid,
		Reason:    string(result.Reason),
		Message:   result.Message(),
		IsExpired: result.IsExpired,
		Status:    result.Status,
	}
	if result.Credential != nil {
		booking := dto.NewCredentialResponse(result.Credential)
		resp.Booking = &booking
	}
	if result.Reason == service.ReasonNotFound {
		return c.Status(http.StatusNotFound).JSON(resp)
	}
	return c.JSON(resp)
}

// GetByToken GET /api/bookings/token/:token.
func (h *CredentialsHandler) GetByToken(c *fiber.Ctx) error {
	credential, err := h.service.GetByToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCredentialResponse(credential)})
}

// Confirm POST /api/bookings/:id/confirm.
func (h *CredentialsHandler) Confirm(c *fiber.Ctx) error {
	return h.transition(c, h.service.Confirm)
}

// Cancel POST /api/bookings/:id/cancel.
func (h *CredentialsHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.service.Cancel)
}

// Complete POST /api/bookings/:id/complete.
func (h *CredentialsHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, h.service.Complete)
}

type transitionFunc = func(ctx context.Context, actor events.Actor, id string) (*domain.Credential, error)

func (h *CredentialsHandler) transition(c *fiber.Ctx, apply transitionFunc) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	credential, err := apply(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCredentialResponse(credential)})
}
