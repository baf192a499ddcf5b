// Package web provides the HTTP handlers for the land-division portal API:
// approval intake, application management, and workflow template authoring.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/landdiv/landflow/pkg/approval"
	"github.com/landdiv/landflow/pkg/designer"
	"github.com/landdiv/landflow/pkg/models"
	"github.com/landdiv/landflow/pkg/services"
	"github.com/landdiv/landflow/pkg/store"
)

type APIHandlers struct {
	applications *services.ApplicationService
	intake       *approval.Intake
	designer     *designer.Service
	store        store.Store
	validator    *validator.Validate
}

func NewAPIHandlers(
	applications *services.ApplicationService,
	intake *approval.Intake,
	designerService *designer.Service,
	s store.Store,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		applications: applications,
		intake:       intake,
		designer:     designerService,
		store:        s,
		validator:    validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Landflow API is healthy"
	httpStatus := http.StatusOK

	storeCheck := "ok"

	err := h.store.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "Landflow API is unhealthy"
		httpStatus = http.StatusInternalServerError
		storeCheck = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// SubmitApproval records a decision against an application's pending step.
// Both the UI and the email-parsing relay post here.
func (h *APIHandlers) SubmitApproval(c fiber.Ctx) error {
	var req SubmitApprovalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	source := models.ApprovalSourceUI
	if req.EmailMetadata != nil {
		source = models.ApprovalSourceEmail
	}

	approvalID, err := h.intake.Submit(c.Context(), approval.Submission{
		ApplicationID: req.ApplicationID,
		ApproverEmail: req.ApproverEmail,
		Action:        models.ApprovalAction(req.Action),
		Comments:      req.Comments,
		Source:        source,
		EmailMetadata: req.EmailMetadata,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"approvalId": approvalID,
	})
}

func (h *APIHandlers) GetApplications(c fiber.Ctx) error {
	applications, err := h.applications.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(applications)
}

func (h *APIHandlers) GetApplication(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Application ID is required")
	}

	application, err := h.applications.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(application)
}

func (h *APIHandlers) CreateApplication(c fiber.Ctx) error {
	var req CreateApplicationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.TemplateID == "" && len(req.Workflow) == 0 {
		return badRequest(c, "Either templateId or workflow is required")
	}

	var (
		id  string
		err error
	)

	if req.TemplateID != "" {
		id, err = h.applications.CreateFromTemplate(c.Context(), req.TemplateID, req.ApplicationData)
	} else {
		id, err = h.applications.Create(c.Context(), req.Workflow, req.ApplicationData)
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"applicationId": id,
	})
}

// CreateTestApplication seeds the canonical four-step fixture workflow.
func (h *APIHandlers) CreateTestApplication(c fiber.Ctx) error {
	id, err := h.applications.CreateTestApplication(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"testApplicationId": id,
	})
}

// ClearApplicationError is the operator reset for tripped safety limits.
func (h *APIHandlers) ClearApplicationError(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Application ID is required")
	}

	err := h.applications.ClearError(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

func (h *APIHandlers) ValidateAddress(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Application ID is required")
	}

	var req ValidateAddressRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err := h.applications.CompleteAddressValidation(c.Context(), id, req.Result)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

func (h *APIHandlers) GetWorkflowTemplates(c fiber.Ctx) error {
	templates, err := h.designer.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(templates)
}

func (h *APIHandlers) GetWorkflowTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow template ID is required")
	}

	template, err := h.designer.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) CreateWorkflowTemplate(c fiber.Ctx) error {
	var req CreateWorkflowTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	template := &models.WorkflowTemplate{
		Name:  req.Name,
		Nodes: req.Nodes,
		Edges: req.Edges,
	}

	id, err := h.designer.Create(c.Context(), template)
	if err != nil {
		return badRequest(c, err.Error())
	}

	template.ID = id

	return c.Status(fiber.StatusCreated).JSON(template)
}

func (h *APIHandlers) UpdateWorkflowTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow template ID is required")
	}

	var req UpdateWorkflowTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	template := &models.WorkflowTemplate{
		Name:  req.Name,
		Nodes: req.Nodes,
		Edges: req.Edges,
	}

	err := h.designer.Update(c.Context(), id, template)
	if err != nil {
		if store.IsNotFound(err) {
			return notFound(c, "Workflow template not found")
		}

		return badRequest(c, err.Error())
	}

	template.ID = id

	return c.JSON(template)
}

func (h *APIHandlers) DeleteWorkflowTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow template ID is required")
	}

	err := h.designer.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
