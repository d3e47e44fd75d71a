package handlers

import (
	"net/http"
	"time"

	"github.com/jsiebens/memberd/internal/domain"
	apperrors "github.com/jsiebens/memberd/internal/errors"
	"github.com/labstack/echo/v4"
)

func NewProfileHandlers(repository domain.Repository) *ProfileHandlers {
	return &ProfileHandlers{
		repository: repository,
	}
}

type ProfileHandlers struct {
	repository domain.Repository
}

type SummaryResponse struct {
	Name       string  `json:"name"`
	Birthday   *string `json:"birthday"`
	IsBirthday bool    `json:"isBirthday"`
}

type ProfileResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdateInput struct {
	Name      *string `json:"name" form:"name"`
	Email     *string `json:"email" form:"email"`
	BirthDate *string `json:"birthDate" form:"birthDate"`
}

// Summary returns the member's name plus the derived birthday fields.
func (h *ProfileHandlers) Summary(c echo.Context) error {
	member, err := h.currentMember(c)
	if err != nil {
		return err
	}

	resp := SummaryResponse{Name: member.Name}
	if member.BirthDate != nil {
		birthday := member.BirthdayLabel()
		resp.Birthday = &birthday
		resp.IsBirthday = member.IsBirthday(time.Now())
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *ProfileHandlers) Profile(c echo.Context) error {
	member, err := h.currentMember(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ProfileResponse{
		Name:  member.Name,
		Email: member.Email,
	})
}

func (h *ProfileHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var input UpdateInput
	if err := c.Bind(&input); err != nil {
		return logError(apperrors.NewValidationError("invalid request body"))
	}

	update := &domain.MemberUpdate{
		Name:  input.Name,
		Email: input.Email,
	}

	if input.BirthDate != nil {
		birthDate, err := time.Parse("2006-01-02", *input.BirthDate)
		if err != nil {
			return logError(apperrors.NewValidationError("invalid birth date, expected YYYY-MM-DD"))
		}
		update.BirthDate = &birthDate
	}

	if err := update.Validate(); err != nil {
		return logError(err)
	}

	identity := currentIdentity(c)
	if err := h.repository.UpdateMember(ctx, identity.MemberID, update); err != nil {
		if apperrors.IsNotFoundError(err) {
			return logError(err)
		}
		return logError(apperrors.NewUpstreamError("unable to update member", err))
	}

	return c.JSON(http.StatusOK, map[string]bool{"updated": true})
}

func (h *ProfileHandlers) currentMember(c echo.Context) (*domain.Member, error) {
	identity := currentIdentity(c)

	member, err := h.repository.GetMember(c.Request().Context(), identity.MemberID)
	if err != nil {
		return nil, logError(apperrors.NewUpstreamError("unable to load member", err))
	}
	if member == nil {
		return nil, logError(apperrors.NewNotFoundError("member not found"))
	}

	return member, nil
}
