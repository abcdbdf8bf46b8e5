package role

import (
	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RoleController struct {
	Service RoleService
}

func NewRoleController(service RoleService) *RoleController {
	return &RoleController{Service: service}
}

type RoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

// ListRoles godoc
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Success      200  {array} Role
// @Router       /api/roles [get]
func (ctrl *RoleController) ListRoles(c *fiber.Ctx) error {
	roles, err := ctrl.Service.ListRoles(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list roles"})
	}
	return c.JSON(roles)
}

// GetRole godoc
// @Summary      Get a role by ID
// @Tags         roles
// @Produce      json
// @Param        id path string true "Role ID"
// @Success      200  {object} Role
// @Router       /api/roles/{id} [get]
func (ctrl *RoleController) GetRole(c *fiber.Ctx) error {
	role, err := ctrl.Service.GetRole(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "role not found"})
	}
	return c.JSON(role)
}

// CreateRole godoc
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        body body RoleRequest true "Role"
// @Success      201  {object} Role
// @Router       /api/roles [post]
func (ctrl *RoleController) CreateRole(c *fiber.Ctx) error {
	var req RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	role := &Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	}
	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.CreateRole(c.Context(), actor, role); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

// UpdateRole godoc
// @Summary      Update a role's description and permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID"
// @Param        body body RoleRequest true "Role"
// @Success      200  {object} map[string]string
// @Router       /api/roles/{id} [put]
func (ctrl *RoleController) UpdateRole(c *fiber.Ctx) error {
	var req RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	role := &Role{
		Description: req.Description,
		Permissions: req.Permissions,
	}
	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.UpdateRole(c.Context(), actor, c.Params("id"), role); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// DeleteRole godoc
// @Summary      Delete a non-system role
// @Tags         roles
// @Produce      json
// @Param        id path string true "Role ID"
// @Success      200  {object} map[string]string
// @Router       /api/roles/{id} [delete]
func (ctrl *RoleController) DeleteRole(c *fiber.Ctx) error {
	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.DeleteRole(c.Context(), actor, c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
