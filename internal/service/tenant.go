package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/tenant-order-service/internal/model"
	"github.com/teresa-solution/tenant-order-service/internal/monitoring"
	"github.com/teresa-solution/tenant-order-service/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreateTenantRequest is the input of CreateTenant. Plan defaults to FREE.
type CreateTenantRequest struct {
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Plan     model.TenantPlan      `json:"plan,omitempty"`
	Settings *model.TenantSettings `json:"settings,omitempty"`
}

type TenantService struct {
	repo store.TenantRepository
}

func NewTenantService(repo store.TenantRepository) *TenantService {
	return &TenantService{repo: repo}
}

// CreateTenant registers a new tenant in PENDING status. The email must not
// belong to another tenant yet; the check and the insert are not atomic.
func (s *TenantService) CreateTenant(ctx context.Context, req CreateTenantRequest) (tenant model.Tenant, err error) {
	ctx, span := tracer.Start(ctx, "tenant.Create")
	defer func() { finishSpan(span, err) }()

	if err := validateCreateTenantRequest(&req); err != nil {
		return model.Tenant{}, invalidArgument(err)
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return model.Tenant{}, internalError(err, "Failed to check email uniqueness")
	}
	if existing != nil {
		return model.Tenant{}, status.Error(codes.AlreadyExists, "Tenant with this email already exists")
	}

	plan := req.Plan
	if plan == "" {
		plan = model.PlanFree
	}
	tenant = model.NewTenant(model.TenantFields{
		Name:     req.Name,
		Email:    req.Email,
		Plan:     plan,
		Status:   model.TenantPending,
		Settings: req.Settings,
	})
	if tenant, err = s.repo.Create(ctx, tenant); err != nil {
		return model.Tenant{}, internalError(err, "Failed to create tenant")
	}

	span.SetAttributes(attribute.String("tenant.id", tenant.TenantID))
	monitoring.TenantsCreated.WithLabelValues(string(tenant.Plan)).Inc()
	log.Info().Str("tenant_id", tenant.TenantID).Str("plan", string(tenant.Plan)).Msg("Tenant created")
	return tenant, nil
}

// GetTenant retrieves a tenant by ID
func (s *TenantService) GetTenant(ctx context.Context, id string) (tenant model.Tenant, err error) {
	ctx, span := tracer.Start(ctx, "tenant.Get", withID("tenant.id", id))
	defer func() { finishSpan(span, err) }()

	return s.load(ctx, id)
}

func (s *TenantService) load(ctx context.Context, id string) (model.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return model.Tenant{}, internalError(err, "Failed to get tenant")
	}
	if tenant == nil {
		return model.Tenant{}, status.Error(codes.NotFound, "Tenant not found")
	}
	return *tenant, nil
}

// UpdateTenant applies the supplied fields of patch to an existing tenant
func (s *TenantService) UpdateTenant(ctx context.Context, id string, patch model.TenantPatch) (tenant model.Tenant, err error) {
	ctx, span := tracer.Start(ctx, "tenant.Update", withID("tenant.id", id))
	defer func() { finishSpan(span, err) }()

	if err := validateTenantPatch(patch); err != nil {
		return model.Tenant{}, invalidArgument(err)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return model.Tenant{}, err
	}

	updated, err := s.repo.Update(ctx, current.WithFields(patch))
	if err != nil {
		return model.Tenant{}, internalError(err, "Failed to update tenant")
	}
	if updated.Status != current.Status {
		log.Info().Str("tenant_id", id).Str("from", string(current.Status)).Str("to", string(updated.Status)).
			Msg("Tenant status changed")
	}
	return updated, nil
}

// DeleteTenant removes a tenant. Its orders are left in place.
func (s *TenantService) DeleteTenant(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "tenant.Delete", withID("tenant.id", id))
	defer func() { finishSpan(span, err) }()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "Failed to delete tenant")
	}
	log.Info().Str("tenant_id", id).Msg("Tenant deleted")
	return nil
}

// ListTenants returns one page of tenants
func (s *TenantService) ListTenants(ctx context.Context, limit int, cursor string) (page store.Page[model.Tenant], err error) {
	ctx, span := tracer.Start(ctx, "tenant.List")
	defer func() { finishSpan(span, err) }()

	page, err = s.repo.List(ctx, limit, cursor)
	if err != nil {
		return store.Page[model.Tenant]{}, listError(err, "Failed to list tenants")
	}
	return page, nil
}

func (s *TenantService) ActivateTenant(ctx context.Context, id string) (model.Tenant, error) {
	active := model.TenantActive
	return s.UpdateTenant(ctx, id, model.TenantPatch{Status: &active})
}

func (s *TenantService) SuspendTenant(ctx context.Context, id string) (model.Tenant, error) {
	suspended := model.TenantSuspended
	return s.UpdateTenant(ctx, id, model.TenantPatch{Status: &suspended})
}

// validateCreateTenantRequest validates the create tenant request
func validateCreateTenantRequest(req *CreateTenantRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.Email == "" {
		return errors.New("email is required")
	}
	if !isValidEmail(req.Email) {
		return errors.New("invalid email format")
	}
	if req.Plan != "" && !req.Plan.Valid() {
		return errors.New("invalid plan")
	}
	return nil
}

// validateTenantPatch validates the update tenant request
func validateTenantPatch(p model.TenantPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return errors.New("name must not be empty")
	}
	if p.Plan != nil && !p.Plan.Valid() {
		return errors.New("invalid plan")
	}
	if p.Status != nil && !p.Status.Valid() {
		return errors.New("invalid status")
	}
	return nil
}

// isValidEmail performs a basic email validation
func isValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
