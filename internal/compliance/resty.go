package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPConfig configures the HTTP client against the compliance authority.
type HTTPConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// HTTPClient talks to the compliance authority over its REST API.
type HTTPClient struct {
	rc *resty.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.APIKey, cfg.APISecret).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HTTPClient{rc: rc}
}

type idResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *HTTPClient) CreateSecondaryProfile(ctx context.Context, params CreateProfileParams) (string, error) {
	return c.postForID(ctx, "/v1/customer-profiles", map[string]any{
		"friendly_name":       params.FriendlyName,
		"email":               params.NotifyEmail,
		"policy_id":           params.PolicyID,
		"status_callback_url": params.StatusCallbackURL,
	})
}

func (c *HTTPClient) CreateEndUser(ctx context.Context, params EndUserParams) (string, error) {
	return c.postForID(ctx, "/v1/end-users", map[string]any{
		"type":          params.Type,
		"friendly_name": params.FriendlyName,
		"attributes":    params.Attributes,
	})
}

func (c *HTTPClient) AttachEntityToProfile(ctx context.Context, profileID, entityID string) error {
	_, err := c.postForID(ctx, fmt.Sprintf("/v1/customer-profiles/%s/entity-assignments", profileID), map[string]any{
		"object_id": entityID,
	})
	return err
}

func (c *HTTPClient) AttachEntityToTrustProduct(ctx context.Context, productID, entityID string) error {
	_, err := c.postForID(ctx, fmt.Sprintf("/v1/trust-products/%s/entity-assignments", productID), map[string]any{
		"object_id": entityID,
	})
	return err
}

func (c *HTTPClient) FetchProfileStatus(ctx context.Context, profileID string) (string, error) {
	var out statusResponse
	if err := c.get(ctx, fmt.Sprintf("/v1/customer-profiles/%s", profileID), &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *HTTPClient) EvaluateAndSubmitProfile(ctx context.Context, profileID string) error {
	if _, err := c.postForID(ctx, fmt.Sprintf("/v1/customer-profiles/%s/evaluations", profileID), nil); err != nil {
		return err
	}
	_, err := c.postForID(ctx, fmt.Sprintf("/v1/customer-profiles/%s/submissions", profileID), nil)
	return err
}

func (c *HTTPClient) EvaluateAndSubmitTrustProduct(ctx context.Context, productID string) error {
	if _, err := c.postForID(ctx, fmt.Sprintf("/v1/trust-products/%s/evaluations", productID), nil); err != nil {
		return err
	}
	_, err := c.postForID(ctx, fmt.Sprintf("/v1/trust-products/%s/submissions", productID), nil)
	return err
}

func (c *HTTPClient) CreateTrustProduct(ctx context.Context, params CreateTrustProductParams) (string, error) {
	return c.postForID(ctx, "/v1/trust-products", map[string]any{
		"friendly_name":       params.FriendlyName,
		"email":               params.NotifyEmail,
		"policy_id":           params.PolicyID,
		"status_callback_url": params.StatusCallbackURL,
	})
}

func (c *HTTPClient) CreateBrandRegistration(ctx context.Context, profileID, productID string) (string, error) {
	return c.postForID(ctx, "/v1/brand-registrations", map[string]any{
		"customer_profile_bundle_id": profileID,
		"a2p_profile_bundle_id":      productID,
	})
}

func (c *HTTPClient) FetchBrandStatus(ctx context.Context, brandID string) (BrandStatus, error) {
	var out BrandStatus
	if err := c.get(ctx, fmt.Sprintf("/v1/brand-registrations/%s", brandID), &out); err != nil {
		return BrandStatus{}, err
	}
	return out, nil
}

func (c *HTTPClient) CreateMessagingService(ctx context.Context, params MessagingServiceParams) (string, error) {
	return c.postForID(ctx, "/v1/messaging-services", map[string]any{
		"friendly_name":       params.FriendlyName,
		"inbound_request_url": params.InboundURL,
		"status_callback_url": params.StatusCallbackURL,
	})
}

func (c *HTTPClient) CreateCampaign(ctx context.Context, params CampaignParams) (string, error) {
	return c.postForID(ctx, fmt.Sprintf("/v1/messaging-services/%s/campaigns", params.MessagingServiceID), map[string]any{
		"brand_registration_id": params.BrandID,
		"use_case":              params.UseCaseCode,
		"description":           params.Description,
		"message_flow":          params.MessageFlow,
		"message_samples":       params.SampleMessages,
	})
}

func (c *HTTPClient) FetchCampaignStatus(ctx context.Context, serviceID, campaignID string) (string, error) {
	var out struct {
		CampaignStatus string `json:"campaign_status"`
		Status         string `json:"status"`
		State          string `json:"state"`
	}
	if err := c.get(ctx, fmt.Sprintf("/v1/messaging-services/%s/campaigns/%s", serviceID, campaignID), &out); err != nil {
		return "", err
	}
	// Vendors have shipped this under several keys over time.
	if out.CampaignStatus != "" {
		return out.CampaignStatus, nil
	}
	if out.Status != "" {
		return out.Status, nil
	}
	return out.State, nil
}

func (c *HTTPClient) ListAttachedSenders(ctx context.Context, serviceID string) ([]Sender, error) {
	var out struct {
		Senders []Sender `json:"senders"`
	}
	if err := c.get(ctx, fmt.Sprintf("/v1/messaging-services/%s/phone-numbers", serviceID), &out); err != nil {
		return nil, err
	}
	return out.Senders, nil
}

func (c *HTTPClient) postForID(ctx context.Context, path string, body map[string]any) (string, error) {
	var out idResponse
	var vendorErr errorBody
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&vendorErr).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("compliance POST %s: %w", path, err)
	}
	if resp.IsError() {
		return "", &VendorError{StatusCode: resp.StatusCode(), Code: vendorErr.Code, Message: vendorErr.Message}
	}
	return out.ID, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, result any) error {
	var vendorErr errorBody
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&vendorErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("compliance GET %s: %w", path, err)
	}
	if resp.IsError() {
		return &VendorError{StatusCode: resp.StatusCode(), Code: vendorErr.Code, Message: vendorErr.Message}
	}
	return nil
}
