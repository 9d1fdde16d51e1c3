package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/fleetdeck/fleetdeck/pkg/domain"
)

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued on successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRequest is the payload for creating an account. The server
// validates field by field; failures come back in Error.Detail.Fields.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	DisplayName     string `json:"displayName"`
	Phone           string `json:"phone,omitempty"`
	Role            string `json:"role,omitempty"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.Post(ctx, "/api/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// Register creates a new account. It does not log the user in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.Post(ctx, "/api/auth/register", req, &profile); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &profile, nil
}

// ExchangeCode trades a one-time SSO code for a bearer token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.Post(ctx, "/api/auth/cli-exchange", map[string]string{"code": code}, &resp); err != nil {
		return nil, fmt.Errorf("client.ExchangeCode: %w", err)
	}
	return &resp, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.Get(ctx, "/api/auth/me", nil, &profile); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &profile, nil
}

// ListTrackers fetches the fleet, optionally filtered (e.g. Query{"status":
// "active"}). Nil-valued filters are omitted from the request URL.
func (c *Client) ListTrackers(ctx context.Context, q Query) ([]domain.Tracker, error) {
	var trackers []domain.Tracker
	if err := c.Get(ctx, "/api/trackers", q, &trackers); err != nil {
		return nil, fmt.Errorf("client.ListTrackers: %w", err)
	}
	return trackers, nil
}

// GetTracker fetches a single tracker by id.
func (c *Client) GetTracker(ctx context.Context, id string) (*domain.Tracker, error) {
	var tracker domain.Tracker
	if err := c.Get(ctx, "/api/trackers/"+url.PathEscape(id), nil, &tracker); err != nil {
		return nil, fmt.Errorf("client.GetTracker: %w", err)
	}
	return &tracker, nil
}

// UpdateTrackerRequest is the payload for renaming/relabelling a tracker.
type UpdateTrackerRequest struct {
	Name  string `json:"name,omitempty"`
	Plate string `json:"plate,omitempty"`
}

// UpdateTracker patches a tracker's editable fields.
func (c *Client) UpdateTracker(ctx context.Context, id string, req UpdateTrackerRequest) (*domain.Tracker, error) {
	var tracker domain.Tracker
	if err := c.Patch(ctx, "/api/trackers/"+url.PathEscape(id), req, &tracker); err != nil {
		return nil, fmt.Errorf("client.UpdateTracker: %w", err)
	}
	return &tracker, nil
}

// ListGeofences fetches all geofences for the account.
func (c *Client) ListGeofences(ctx context.Context) ([]domain.Geofence, error) {
	var fences []domain.Geofence
	if err := c.Get(ctx, "/api/geofences", nil, &fences); err != nil {
		return nil, fmt.Errorf("client.ListGeofences: %w", err)
	}
	return fences, nil
}

// CreateGeofenceRequest is the payload for creating a circular geofence.
type CreateGeofenceRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusM   float64 `json:"radiusM"`
}

// CreateGeofence creates a geofence.
func (c *Client) CreateGeofence(ctx context.Context, req CreateGeofenceRequest) (*domain.Geofence, error) {
	var fence domain.Geofence
	if err := c.Post(ctx, "/api/geofences", req, &fence); err != nil {
		return nil, fmt.Errorf("client.CreateGeofence: %w", err)
	}
	return &fence, nil
}

// DeleteGeofence removes a geofence by id.
func (c *Client) DeleteGeofence(ctx context.Context, id uuid.UUID) error {
	if err := c.Delete(ctx, "/api/geofences/"+id.String(), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteGeofence: %w", err)
	}
	return nil
}

// ListAlerts fetches alerts, optionally filtered by tracker or
// acknowledgement state.
func (c *Client) ListAlerts(ctx context.Context, q Query) ([]domain.Alert, error) {
	var alerts []domain.Alert
	if err := c.Get(ctx, "/api/alerts", q, &alerts); err != nil {
		return nil, fmt.Errorf("client.ListAlerts: %w", err)
	}
	return alerts, nil
}

// AcknowledgeAlert marks an alert as seen.
func (c *Client) AcknowledgeAlert(ctx context.Context, id uuid.UUID) error {
	if err := c.Post(ctx, "/api/alerts/"+id.String()+"/ack", nil, nil); err != nil {
		return fmt.Errorf("client.AcknowledgeAlert: %w", err)
	}
	return nil
}

// BillingSummary returns the account's billing snapshot.
func (c *Client) BillingSummary(ctx context.Context) (*domain.BillingSummary, error) {
	var summary domain.BillingSummary
	if err := c.Get(ctx, "/api/billing/summary", nil, &summary); err != nil {
		return nil, fmt.Errorf("client.BillingSummary: %w", err)
	}
	return &summary, nil
}
