package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/message"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
)

type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string            `json:"token" validate:"required"`
	User  identity.Identity `json:"user"`
}

type identityResponse struct {
	User identity.Identity `json:"user"`
}

// CredentialsUpdate is the partial profile update. Nil fields are left unchanged.
type CredentialsUpdate struct {
	CurrentPassword string  `json:"currentPassword"`
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	Email           *string `json:"email,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
	Address         *string `json:"address,omitempty"`
}

type AssignRequest struct {
	UserID      int64      `json:"userId"`
	PrivilegeID int64      `json:"privilegeId"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

type RemoveRequest struct {
	UserID      int64 `json:"userId"`
	PrivilegeID int64 `json:"privilegeId"`
}

type InvestmentDraft struct {
	Title             string     `json:"title"`
	RequiredApprovals int        `json:"requiredApprovals"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
}

type statusUpdate struct {
	Status string `json:"status"`
}

type roleUpdate struct {
	Role identity.RoleName `json:"role"`
}

func (c *Client) Login(ctx context.Context, userName, password string) (*LoginResponse, error) {
	const endpoint = "POST auth/login"
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "auth/login", endpoint, LoginRequest{UserName: userName, Password: password}, &resp); err != nil {
		return nil, err
	}
	if err := c.check(endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me validates the bearer token in use and returns its identity.
func (c *Client) Me(ctx context.Context) (*identity.Identity, error) {
	const endpoint = "POST auth/me"
	var resp identityResponse
	body := map[string]string{"token": c.token(ctx)}
	if err := c.do(ctx, http.MethodPost, "auth/me", endpoint, body, &resp); err != nil {
		return nil, err
	}
	if err := c.check(endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) UpdateCredentials(ctx context.Context, update CredentialsUpdate) (*identity.Identity, error) {
	const endpoint = "PUT auth/update"
	var resp identityResponse
	if err := c.do(ctx, http.MethodPut, "auth/update", endpoint, update, &resp); err != nil {
		return nil, err
	}
	if err := c.check(endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) UserPrivileges(ctx context.Context, userID int64) ([]privilege.Grant, error) {
	return getList[privilege.Grant](ctx, c, "privilege/user/"+id(userID), "GET privilege/user")
}

func (c *Client) AssignPrivilege(ctx context.Context, req AssignRequest) error {
	return c.do(ctx, http.MethodPost, "privilege/assign", "POST privilege/assign", req, nil)
}

func (c *Client) RemovePrivilege(ctx context.Context, userID, privilegeID int64) error {
	req := RemoveRequest{UserID: userID, PrivilegeID: privilegeID}
	return c.do(ctx, http.MethodPost, "privilege/remove", "POST privilege/remove", req, nil)
}

func (c *Client) InvestmentItems(ctx context.Context) ([]approval.Subject, error) {
	return getList[approval.Subject](ctx, c, "investmentform", "GET investmentform")
}

func (c *Client) SubmitInvestmentItem(ctx context.Context, draft InvestmentDraft) (*approval.Subject, error) {
	const endpoint = "POST investmentform"
	var subject approval.Subject
	if err := c.do(ctx, http.MethodPost, "investmentform", endpoint, draft, &subject); err != nil {
		return nil, err
	}
	if err := c.check(endpoint, &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

func (c *Client) UpdateInvestmentStatus(ctx context.Context, subjectID int64, status approval.Status) error {
	body := statusUpdate{Status: string(status)}
	return c.do(ctx, http.MethodPut, "investmentform/"+id(subjectID), "PUT investmentform", body, nil)
}

func (c *Client) Requests(ctx context.Context) ([]approval.Subject, error) {
	return getList[approval.Subject](ctx, c, "pcrequest/requests", "GET pcrequest/requests")
}

func (c *Client) DecideRequest(ctx context.Context, subjectID int64, decision approval.Decision) error {
	body := statusUpdate{Status: string(decision)}
	path := "pcrequest/requests/" + id(subjectID) + "/status"
	return c.do(ctx, http.MethodPatch, path, "PATCH pcrequest/requests/status", body, nil)
}

func (c *Client) Assets(ctx context.Context) ([]asset.Asset, error) {
	return getList[asset.Asset](ctx, c, "asset", "GET asset")
}

func (c *Client) UpdateAssetStatus(ctx context.Context, assetID int64, status asset.Status) error {
	body := statusUpdate{Status: string(status)}
	return c.do(ctx, http.MethodPut, "asset/"+id(assetID), "PUT asset", body, nil)
}

func (c *Client) MyMessages(ctx context.Context) ([]message.Message, error) {
	return getList[message.Message](ctx, c, "messages/my", "GET messages/my")
}

func (c *Client) Users(ctx context.Context) ([]identity.Identity, error) {
	return getList[identity.Identity](ctx, c, "user", "GET user")
}

func (c *Client) ChangeUserRole(ctx context.Context, userID int64, role identity.RoleName) error {
	return c.do(ctx, http.MethodPut, "user/"+id(userID)+"/role", "PUT user/role", roleUpdate{Role: role}, nil)
}

func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodDelete, "user/"+id(userID), "DELETE user", nil, nil)
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}
