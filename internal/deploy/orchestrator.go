// Package deploy pushes parameterized workflow templates into tenant
// subscriptions and tracks every attempt in the deployment ledger.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/credential"
	"tenant-deployment-system/internal/metrics"
	"tenant-deployment-system/internal/model"
	"tenant-deployment-system/internal/repository"
	"tenant-deployment-system/internal/template"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	LicenseIdentifierGenerated = "generated"
	LicenseIdentifierLicense   = "license"

	stateDisabled  = "Disabled"
	maxDetailBytes = 512
)

var workflowName = regexp.MustCompile(`^[A-Za-z0-9._()-]{1,80}$`)

type DeployRequest struct {
	TenantID       string `json:"tenantId"`
	SubscriptionID string `json:"subscriptionId"`
	ResourceGroup  string `json:"resourceGroup"`
	WorkflowName   string `json:"workflowName"`
	TemplateName   string `json:"templateName"`
}

type DisableRequest struct {
	TenantID       string `json:"tenantId"`
	SubscriptionID string `json:"subscriptionId"`
	ResourceGroup  string `json:"resourceGroup"`
	WorkflowName   string `json:"workflowName"`
}

// Outcome is the result of one deploy or disable. Err carries the classified
// failure; Status and Body carry the upstream response when there was one.
// A failed Outcome with a DeploymentID failed after the ledger was involved.
type Outcome struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
	DeploymentID uint   `json:"deploymentId,omitempty"`
	Status       int    `json:"-"`
	Body         string `json:"-"`
	Err          error  `json:"-"`
}

// Admitter resolves a tenant and the license that allows it to receive deployments.
type Admitter interface {
	Admit(ctx context.Context, tenantExternalID string) (*model.Tenant, *model.License, error)
}

type TemplateSource interface {
	Load(name string) ([]byte, error)
}

// Observer is told about every ledger row the orchestrator writes or updates.
type Observer interface {
	Observe(record model.DeploymentRecord)
}

type Deps struct {
	Admitter    Admitter
	Tenants     repository.TenantStore
	Ledger      repository.DeploymentLedger
	Templates   TemplateSource
	Params      template.Parameterizer
	Credentials credential.Provider
	Client      WorkflowClient
	Observers   []Observer
}

type Orchestrator struct {
	Deps
	licenseIdentifier string
	timeout           time.Duration
	newGUID           func() string
}

// NewOrchestrator wires the orchestrator. timeout bounds the token exchange
// and remote calls of a single operation; zero means no bound.
func NewOrchestrator(deps Deps, licenseIdentifier string, timeout time.Duration) *Orchestrator {
	if deps.Params == nil {
		deps.Params = template.ParameterizerFunc(template.Parameterize)
	}
	if licenseIdentifier == "" {
		licenseIdentifier = LicenseIdentifierGenerated
	}
	return &Orchestrator{
		Deps:              deps,
		licenseIdentifier: licenseIdentifier,
		timeout:           timeout,
		newGUID:           uuid.NewString,
	}
}

func (r DeployRequest) validate() error {
	if r.TenantID == "" || r.SubscriptionID == "" || r.ResourceGroup == "" || r.WorkflowName == "" || r.TemplateName == "" {
		return apperr.ValidationInput("tenantId, subscriptionId, resourceGroup, workflowName and templateName are required")
	}
	if !workflowName.MatchString(r.WorkflowName) {
		return apperr.ValidationInput("invalid workflow name")
	}
	return nil
}

func (r DisableRequest) validate() error {
	if r.TenantID == "" || r.SubscriptionID == "" || r.ResourceGroup == "" || r.WorkflowName == "" {
		return apperr.ValidationInput("tenantId, subscriptionId, resourceGroup and workflowName are required")
	}
	if !workflowName.MatchString(r.WorkflowName) {
		return apperr.ValidationInput("invalid workflow name")
	}
	return nil
}

func (o *Orchestrator) Deploy(ctx context.Context, req DeployRequest) Outcome {
	started := time.Now()
	out := o.deploy(ctx, req)
	metrics.ObserveOperation("deploy", outcomeLabel(out), started)
	return out
}

func (o *Orchestrator) deploy(ctx context.Context, req DeployRequest) Outcome {
	if err := req.validate(); err != nil {
		return rejected(err)
	}

	log := zap.L().With(
		zap.String("tenant_id", req.TenantID),
		zap.String("workflow", req.WorkflowName),
		zap.String("subscription_id", req.SubscriptionID),
		zap.String("resource_group", req.ResourceGroup),
		zap.String("template", req.TemplateName),
	)

	tenant, license, err := o.Admitter.Admit(ctx, req.TenantID)
	if err != nil {
		log.Warn("deployment not admitted", zap.Error(err))
		return rejected(err)
	}

	doc, err := o.Templates.Load(req.TemplateName)
	if err != nil {
		log.Warn("template unavailable", zap.Error(err))
		return rejected(err)
	}

	row := &model.Deployment{
		TenantID:       tenant.ID,
		WorkflowName:   req.WorkflowName,
		SubscriptionID: req.SubscriptionID,
		ResourceGroup:  req.ResourceGroup,
		TemplateName:   req.TemplateName,
		Status:         model.DeploymentPending,
		Message:        "Deployment started",
	}
	if err := o.Ledger.Record(ctx, row); err != nil {
		log.Error("failed to record deployment", zap.Error(err))
		return rejected(apperr.Internal("record deployment", err))
	}
	o.notify(row, tenant.ExternalID)

	callCtx, cancel := o.withTimeout(ctx)
	defer cancel()

	failed := func(err error) Outcome {
		msg := fmt.Sprintf("Failed to deploy workflow '%s'", req.WorkflowName)
		out := failure(msg, err)
		out.DeploymentID = row.ID
		log.Error("workflow deployment failed", zap.Uint("deployment_id", row.ID), zap.Int("upstream_status", out.Status), zap.Error(err))
		if serr := o.settle(ctx, row, tenant.ExternalID, model.DeploymentFailed, msg+": "+out.Error); serr != nil {
			out.Error += "; deployment record not updated"
		}
		return out
	}

	tok, err := o.Credentials.Token(callCtx)
	if err != nil {
		return failed(err)
	}

	body, err := o.Params.Parameterize(doc, tenant.ExternalID, o.licenseGUID(license))
	if err != nil {
		return failed(err)
	}

	ref := WorkflowRef{SubscriptionID: req.SubscriptionID, ResourceGroup: req.ResourceGroup, Name: req.WorkflowName}
	if err := o.Client.Upsert(callCtx, tok.AccessToken, ref, body); err != nil {
		return failed(err)
	}

	msg := "Workflow deployed successfully"
	if err := o.settle(ctx, row, tenant.ExternalID, model.DeploymentSuccess, msg); err != nil {
		out := failure(fmt.Sprintf("Workflow '%s' deployed but its deployment record could not be updated", req.WorkflowName),
			apperr.Internal("update deployment record", err))
		out.DeploymentID = row.ID
		return out
	}
	log.Info("workflow deployed", zap.Uint("deployment_id", row.ID))
	return Outcome{Success: true, Message: msg, DeploymentID: row.ID}
}

func (o *Orchestrator) Disable(ctx context.Context, req DisableRequest) Outcome {
	started := time.Now()
	out := o.disable(ctx, req)
	metrics.ObserveOperation("disable", outcomeLabel(out), started)
	return out
}

// disable is a read-modify-write of the live resource. The ledger row is only
// touched once the remote update succeeded.
func (o *Orchestrator) disable(ctx context.Context, req DisableRequest) Outcome {
	if err := req.validate(); err != nil {
		return rejected(err)
	}

	log := zap.L().With(
		zap.String("tenant_id", req.TenantID),
		zap.String("workflow", req.WorkflowName),
		zap.String("subscription_id", req.SubscriptionID),
		zap.String("resource_group", req.ResourceGroup),
	)

	tenant, err := o.Tenants.FindTenant(ctx, req.TenantID)
	if err != nil {
		return rejected(err)
	}

	row, err := o.Ledger.FindActive(ctx, model.DeploymentKey{
		TenantID:       tenant.ID,
		WorkflowName:   req.WorkflowName,
		SubscriptionID: req.SubscriptionID,
		ResourceGroup:  req.ResourceGroup,
	})
	if err != nil {
		log.Warn("no deployment to disable", zap.Error(err))
		return rejected(err)
	}

	callCtx, cancel := o.withTimeout(ctx)
	defer cancel()

	msg := fmt.Sprintf("Failed to disable workflow '%s'", req.WorkflowName)
	failed := func(err error) Outcome {
		out := failure(msg, err)
		out.DeploymentID = row.ID
		log.Error("workflow disable failed", zap.Uint("deployment_id", row.ID), zap.Int("upstream_status", out.Status), zap.Error(err))
		return out
	}

	tok, err := o.Credentials.Token(callCtx)
	if err != nil {
		return failed(err)
	}

	ref := WorkflowRef{SubscriptionID: req.SubscriptionID, ResourceGroup: req.ResourceGroup, Name: req.WorkflowName}
	current, err := o.Client.Get(callCtx, tok.AccessToken, ref)
	if err != nil {
		return failed(err)
	}

	updated, err := template.SetState(current, stateDisabled)
	if err != nil {
		return failed(err)
	}

	if err := o.Client.Upsert(callCtx, tok.AccessToken, ref, updated); err != nil {
		return failed(err)
	}

	done := "Workflow disabled successfully"
	if err := o.Ledger.UpdateStatus(context.WithoutCancel(ctx), row.ID, model.DeploymentSuccess, model.DeploymentDisabled, done); err != nil {
		log.Error("workflow disabled but ledger update failed", zap.Uint("deployment_id", row.ID), zap.Error(err))
		out := failure(msg, err)
		out.DeploymentID = row.ID
		return out
	}
	row.Status, row.Message = model.DeploymentDisabled, done
	o.notify(row, tenant.ExternalID)

	log.Info("workflow disabled", zap.Uint("deployment_id", row.ID))
	return Outcome{Success: true, Message: done, DeploymentID: row.ID}
}

func (o *Orchestrator) licenseGUID(license *model.License) string {
	if o.licenseIdentifier == LicenseIdentifierLicense && license != nil && license.GUID != "" {
		return license.GUID
	}
	return o.newGUID()
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

// settle moves a Pending row to its final status. It runs on a context that
// outlives the caller's deadline so a timed out call never leaves Pending behind.
// A failed write is returned so the caller answers with a failure.
func (o *Orchestrator) settle(ctx context.Context, row *model.Deployment, tenantExternalID string, status model.DeploymentStatus, message string) error {
	if err := o.Ledger.UpdateStatus(context.WithoutCancel(ctx), row.ID, model.DeploymentPending, status, message); err != nil {
		zap.L().Error("failed to settle deployment", zap.Uint("deployment_id", row.ID), zap.String("status", string(status)), zap.Error(err))
		return err
	}
	row.Status, row.Message = status, message
	o.notify(row, tenantExternalID)
	return nil
}

func (o *Orchestrator) notify(row *model.Deployment, tenantExternalID string) {
	for _, obs := range o.Observers {
		obs.Observe(model.DeploymentRecord{Deployment: *row, TenantExternalID: tenantExternalID})
	}
}

func rejected(err error) Outcome {
	return Outcome{Message: messageOf(err), Error: messageOf(err), Err: err}
}

func failure(msg string, err error) Outcome {
	out := Outcome{Message: msg, Err: err}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		out.Status, out.Body = ae.Status, ae.Body
		out.Error = ae.Message
		if ae.Kind == apperr.KindRemoteAPI {
			out.Error = fmt.Sprintf("%s: status %d: %s", ae.Message, ae.Status, truncate(ae.Body, maxDetailBytes))
		}
		if errors.Is(err, context.DeadlineExceeded) {
			out.Error = ae.Message + ": deadline exceeded"
		}
	} else {
		out.Error = err.Error()
	}
	return out
}

func messageOf(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// HTTPStatus is the status the API layer answers with for out.
func (out Outcome) HTTPStatus() int {
	switch {
	case out.Success:
		return http.StatusOK
	case out.DeploymentID != 0:
		return http.StatusInternalServerError
	default:
		return apperr.HTTPStatus(out.Err)
	}
}

func outcomeLabel(out Outcome) string {
	switch {
	case out.Success:
		return "Success"
	case out.DeploymentID == 0:
		return "Rejected"
	default:
		return "Failed"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
