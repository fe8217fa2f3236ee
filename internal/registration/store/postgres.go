package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "sendcore/pkg/domain"
	"sendcore/pkg/platform/sentinel"

	"sendcore/internal/registration/models"
)

//go:embed schema.sql
var schema string

// Postgres is the production ProfileStore. Handle writes rely on a
// conditional UPDATE (set only while NULL) so set-if-absent holds under
// concurrent writers without explicit locking.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate applies the registration_profiles schema. Idempotent.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply registration schema: %w", err)
	}
	return nil
}

// handleColumns whitelists the columns SetHandle may touch. Field names come
// from code, never from input, but the whitelist keeps that a structural
// guarantee rather than a calling convention.
var handleColumns = map[models.Field]string{
	models.FieldSecondaryProfileID:    "secondary_profile_id",
	models.FieldBusinessEntityID:      "business_entity_id",
	models.FieldAuthorizedRepEntityID: "authorized_rep_entity_id",
	models.FieldTrustProductID:        "trust_product_id",
	models.FieldComplianceEntityID:    "compliance_entity_id",
	models.FieldBrandID:               "brand_id",
	models.FieldMessagingServiceID:    "messaging_service_id",
	models.FieldCampaignID:            "campaign_id",
}

const profileColumns = `
	tenant_id, business_name, ein, website, address,
	contact_name, contact_email, contact_phone,
	sample_messages, opt_in_description, volume, use_case_code,
	secondary_profile_id, business_entity_id, authorized_rep_entity_id,
	assigned_to_primary, trust_product_id, compliance_entity_id,
	brand_id, messaging_service_id, campaign_id,
	brand_status, brand_failure_detail, campaign_status,
	registration_status, application_status, messaging_ready,
	declined_reason, last_error, last_synced_at, approval_notified_at,
	created_at, updated_at`

func (s *Postgres) Get(ctx context.Context, tenantID id.TenantID) (*models.RegistrationProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM registration_profiles WHERE tenant_id = $1`,
		tenantID.String())
	return scanProfile(row)
}

func (s *Postgres) UpsertFacts(ctx context.Context, tenantID id.TenantID, facts models.BusinessFacts) (*models.RegistrationProfile, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO registration_profiles (
			tenant_id, business_name, ein, website, address,
			contact_name, contact_email, contact_phone,
			sample_messages, opt_in_description, volume, use_case_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (tenant_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			ein = EXCLUDED.ein,
			website = EXCLUDED.website,
			address = EXCLUDED.address,
			contact_name = EXCLUDED.contact_name,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone,
			sample_messages = EXCLUDED.sample_messages,
			opt_in_description = EXCLUDED.opt_in_description,
			volume = EXCLUDED.volume,
			use_case_code = EXCLUDED.use_case_code,
			updated_at = now()
		RETURNING `+profileColumns,
		tenantID.String(), facts.BusinessName, facts.EIN, facts.Website, facts.Address,
		facts.ContactName, facts.ContactEmail, facts.ContactPhone,
		facts.SampleMessages, facts.OptInDescription, facts.Volume, facts.UseCaseCode)
	return scanProfile(row)
}

func (s *Postgres) SetHandle(ctx context.Context, tenantID id.TenantID, field models.Field, value string) (string, error) {
	if field == models.FieldAssignedToPrimary {
		tag, err := s.pool.Exec(ctx, `
			UPDATE registration_profiles
			SET assigned_to_primary = TRUE, updated_at = now()
			WHERE tenant_id = $1`,
			tenantID.String())
		if err != nil {
			return "", fmt.Errorf("set assigned_to_primary: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return "", sentinel.ErrNotFound
		}
		return "true", nil
	}

	col, ok := handleColumns[field]
	if !ok {
		return "", fmt.Errorf("unknown handle field %q", field)
	}

	var stored string
	// Set only while NULL, then read back whatever won. Two concurrent
	// writers both come away with the single stored value.
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE registration_profiles
		SET %[1]s = COALESCE(%[1]s, $2), updated_at = now()
		WHERE tenant_id = $1
		RETURNING %[1]s`, col),
		tenantID.String(), value).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("set handle %s: %w", field, err)
	}
	return stored, nil
}

func (s *Postgres) UpdateStatus(ctx context.Context, tenantID id.TenantID, update StatusUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE registration_profiles SET
			brand_status = $2,
			brand_failure_detail = $3,
			campaign_status = $4,
			registration_status = $5,
			application_status = $6,
			messaging_ready = $7,
			declined_reason = $8,
			last_synced_at = $9,
			updated_at = now()
		WHERE tenant_id = $1`,
		tenantID.String(), update.BrandStatus, update.BrandFailureDetail,
		update.CampaignStatus, string(update.RegistrationStatus),
		string(update.ApplicationStatus), update.MessagingReady,
		update.DeclinedReason, update.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) SetLastError(ctx context.Context, tenantID id.TenantID, message string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE registration_profiles SET last_error = $2, updated_at = now()
		WHERE tenant_id = $1`,
		tenantID.String(), message)
	if err != nil {
		return fmt.Errorf("set last error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) MarkApprovalNotified(ctx context.Context, tenantID id.TenantID, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE registration_profiles
		SET approval_notified_at = $2, updated_at = now()
		WHERE tenant_id = $1 AND approval_notified_at IS NULL`,
		tenantID.String(), at)
	if err != nil {
		return false, fmt.Errorf("mark approval notified: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Postgres) FindByHandle(ctx context.Context, field models.Field, value string) (*models.RegistrationProfile, error) {
	if value == "" {
		return nil, sentinel.ErrNotFound
	}
	col, ok := handleColumns[field]
	if !ok {
		return nil, fmt.Errorf("unknown handle field %q", field)
	}
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT `+profileColumns+` FROM registration_profiles WHERE %s = $1`, col),
		value)
	return scanProfile(row)
}

func (s *Postgres) ListUnfinished(ctx context.Context, limit int) ([]*models.RegistrationProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM registration_profiles
		WHERE application_status <> 'approved'
		ORDER BY last_synced_at ASC NULLS FIRST
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list unfinished: %w", err)
	}
	defer rows.Close()

	var out []*models.RegistrationProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.RegistrationProfile, error) {
	var (
		p                  models.RegistrationProfile
		tenantID           string
		secondaryProfileID *string
		businessEntityID   *string
		authorizedRepID    *string
		trustProductID     *string
		complianceEntityID *string
		brandID            *string
		messagingServiceID *string
		campaignID         *string
		brandStatus        *string
		brandFailureDetail *string
		campaignStatus     *string
		declinedReason     *string
		lastError          *string
		lastSyncedAt       *time.Time
		registrationStatus string
		applicationStatus  string
	)
	err := row.Scan(
		&tenantID, &p.Facts.BusinessName, &p.Facts.EIN, &p.Facts.Website, &p.Facts.Address,
		&p.Facts.ContactName, &p.Facts.ContactEmail, &p.Facts.ContactPhone,
		&p.Facts.SampleMessages, &p.Facts.OptInDescription, &p.Facts.Volume, &p.Facts.UseCaseCode,
		&secondaryProfileID, &businessEntityID, &authorizedRepID,
		&p.AssignedToPrimary, &trustProductID, &complianceEntityID,
		&brandID, &messagingServiceID, &campaignID,
		&brandStatus, &brandFailureDetail, &campaignStatus,
		&registrationStatus, &applicationStatus, &p.MessagingReady,
		&declinedReason, &lastError, &lastSyncedAt, &p.ApprovalNotifiedAt,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan registration profile: %w", err)
	}

	parsed, err := id.ParseTenantID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("stored tenant id %q: %w", tenantID, err)
	}
	p.TenantID = parsed
	p.SecondaryProfileID = deref(secondaryProfileID)
	p.BusinessEntityID = deref(businessEntityID)
	p.AuthorizedRepEntityID = deref(authorizedRepID)
	p.TrustProductID = deref(trustProductID)
	p.ComplianceEntityID = deref(complianceEntityID)
	p.BrandID = deref(brandID)
	p.MessagingServiceID = deref(messagingServiceID)
	p.CampaignID = deref(campaignID)
	p.BrandStatus = deref(brandStatus)
	p.BrandFailureDetail = deref(brandFailureDetail)
	p.CampaignStatus = deref(campaignStatus)
	p.DeclinedReason = deref(declinedReason)
	p.LastError = deref(lastError)
	p.RegistrationStatus = models.RegistrationStatus(registrationStatus)
	p.ApplicationStatus = models.ApplicationStatus(applicationStatus)
	if lastSyncedAt != nil {
		p.LastSyncedAt = *lastSyncedAt
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
