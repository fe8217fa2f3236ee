package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   Class
	}{
		{"approved", "approved", ClassApproved},
		{"verified", "verified", ClassApproved},
		{"active", "active", ClassApproved},
		{"in_use", "in_use", ClassApproved},
		{"registered", "registered", ClassApproved},
		{"campaign_approved", "campaign_approved", ClassApproved},
		{"pending", "pending", ClassPending},
		{"submitted", "submitted", ClassPending},
		{"under_review", "under_review", ClassPending},
		{"pending-review", "pending-review", ClassPending},
		{"in_progress", "in_progress", ClassPending},
		{"campaign_submitted", "campaign_submitted", ClassPending},
		{"failed", "failed", ClassFailed},
		{"rejected", "rejected", ClassFailed},
		{"declined", "declined", ClassFailed},
		{"terminated", "terminated", ClassFailed},
		{"brand_failed", "brand_failed", ClassFailed},
		{"campaign_failed", "campaign_failed", ClassFailed},
		{"uppercase approved", "APPROVED", ClassApproved},
		{"mixed case with spaces", "  Rejected ", ClassFailed},
		{"empty string", "", ClassUnknown},
		{"unrecognized vocabulary", "twirling", ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status))
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 2, Score("approved"))
	assert.Equal(t, 1, Score("pending"))
	assert.Equal(t, 0, Score("rejected"))
	assert.Equal(t, 0, Score(""))
	assert.Equal(t, 0, Score("something_new"))
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want NextAction
	}{
		{
			name: "nothing yet",
			snap: Snapshot{},
			want: ActionStartProfile,
		},
		{
			name: "profile exists, no brand",
			snap: Snapshot{HasProfile: true},
			want: ActionSubmitBrand,
		},
		{
			name: "brand failed needs resubmission",
			snap: Snapshot{HasProfile: true, HasBrand: true, BrandFailed: true},
			want: ActionSubmitBrand,
		},
		{
			name: "brand pending",
			snap: Snapshot{HasProfile: true, HasBrand: true},
			want: ActionBrandPending,
		},
		{
			name: "brand approved, no service",
			snap: Snapshot{HasProfile: true, HasBrand: true, BrandApproved: true},
			want: ActionCreateMessagingService,
		},
		{
			name: "service exists, no campaign",
			snap: Snapshot{HasProfile: true, HasBrand: true, BrandApproved: true, HasService: true},
			want: ActionSubmitCampaign,
		},
		{
			name: "campaign failed needs resubmission",
			snap: Snapshot{
				HasProfile: true, HasBrand: true, BrandApproved: true,
				HasService: true, HasCampaign: true, CampaignFailed: true,
			},
			want: ActionSubmitCampaign,
		},
		{
			name: "campaign pending",
			snap: Snapshot{
				HasProfile: true, HasBrand: true, BrandApproved: true,
				HasService: true, HasCampaign: true,
			},
			want: ActionCampaignPending,
		},
		{
			name: "everything approved",
			snap: Snapshot{
				HasProfile: true, HasBrand: true, BrandApproved: true,
				HasService: true, HasCampaign: true, CampaignApproved: true,
			},
			want: ActionReady,
		},
		{
			name: "brand failure outranks later progress",
			snap: Snapshot{
				HasProfile: true, HasBrand: true, BrandFailed: true,
				HasService: true, HasCampaign: true, CampaignApproved: true,
			},
			want: ActionSubmitBrand,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.snap))
		})
	}
}
