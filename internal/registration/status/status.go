// Package status centralizes the vendor status vocabulary and next-action
// rules shared by the synchronous status endpoint, the status callback, and
// the scheduled sweep. Both paths import this package so they cannot drift
// apart.
package status

import "strings"

// Class buckets a vendor status string for approval purposes.
type Class int

const (
	// ClassUnknown covers any vocabulary we do not recognize. It is treated
	// identically to pending: never approve on missing information.
	ClassUnknown Class = iota
	ClassPending
	ClassApproved
	ClassFailed
)

var approved = set(
	"approved",
	"verified",
	"active",
	"in_use",
	"registered",
	"campaign_approved",
)

var pending = set(
	"pending",
	"submitted",
	"under_review",
	"pending-review",
	"in_progress",
	"campaign_submitted",
)

var failed = set(
	"failed",
	"rejected",
	"declined",
	"terminated",
	"brand_failed",
	"campaign_failed",
)

// Classify buckets a vendor status string, case-insensitively. An empty
// string classifies as unknown.
func Classify(s string) Class {
	key := strings.ToLower(strings.TrimSpace(s))
	switch {
	case key == "":
		return ClassUnknown
	case in(approved, key):
		return ClassApproved
	case in(pending, key):
		return ClassPending
	case in(failed, key):
		return ClassFailed
	default:
		return ClassUnknown
	}
}

// Score ranks a campaign status for picking the strongest signal when two
// sources disagree within a pass: approved > pending > everything else.
func Score(s string) int {
	switch Classify(s) {
	case ClassApproved:
		return 2
	case ClassPending:
		return 1
	default:
		return 0
	}
}

// NextAction is the tenant-facing hint about what happens next.
type NextAction string

const (
	ActionStartProfile           NextAction = "start_profile"
	ActionSubmitBrand            NextAction = "submit_brand"
	ActionBrandPending           NextAction = "brand_pending"
	ActionCreateMessagingService NextAction = "create_messaging_service"
	ActionSubmitCampaign         NextAction = "submit_campaign"
	ActionCampaignPending        NextAction = "campaign_pending"
	ActionReady                  NextAction = "ready"
)

// Snapshot is the minimal view of a profile needed to derive the next action.
type Snapshot struct {
	HasProfile       bool
	HasBrand         bool
	BrandFailed      bool
	BrandApproved    bool
	HasService       bool
	HasCampaign      bool
	CampaignFailed   bool
	CampaignApproved bool
}

// Derive applies the ordered next-action rules; the first match wins. The
// messaging-service check sits before campaign submission because a campaign
// cannot be created without a service.
func Derive(s Snapshot) NextAction {
	switch {
	case !s.HasProfile:
		return ActionStartProfile
	case !s.HasBrand || s.BrandFailed:
		return ActionSubmitBrand
	case !s.BrandApproved:
		return ActionBrandPending
	case !s.HasService:
		return ActionCreateMessagingService
	case !s.HasCampaign || s.CampaignFailed:
		return ActionSubmitCampaign
	case !s.CampaignApproved:
		return ActionCampaignPending
	default:
		return ActionReady
	}
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func in(m map[string]struct{}, key string) bool {
	_, ok := m[key]
	return ok
}
