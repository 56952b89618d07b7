package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"adminservice/internal/domain"
	"adminservice/internal/domain/offboard"
	"adminservice/internal/domain/tagsync"
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the root of the directory service, e.g. "https://directory.corp.example".
	BaseURL string
	// Token is sent as a bearer token on every request.
	Token string
	// HTTPClient is used for all requests. If nil, a client with a 30s
	// timeout is used.
	HTTPClient *http.Client
	// RequestsPerSecond throttles outgoing requests. Zero disables
	// client-side throttling.
	RequestsPerSecond float64
}

// Client talks to the directory service. It satisfies both tagsync.Directory
// and offboard.Directory.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("directory: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("directory: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		limiter:    limiter,
	}, nil
}

func (c *Client) ListTeams(ctx context.Context) ([]tagsync.Team, error) {
	resources, err := listAll[teamResource](ctx, c, "/v1/teams")
	if err != nil {
		return nil, err
	}
	teams := make([]tagsync.Team, 0, len(resources))
	for _, r := range resources {
		teams = append(teams, r.toDomain())
	}
	return teams, nil
}

func (c *Client) ListGroupMembers(ctx context.Context, groupID string) ([]string, error) {
	path := fmt.Sprintf("/v1/groups/%s/members", url.PathEscape(groupID))
	resources, err := listAll[groupMemberResource](ctx, c, path)
	if err != nil {
		if IsCode(err, CodeNotFound) {
			return nil, &domain.DomainError{
				Code:       domain.ErrorCodeGroupNotFound,
				Message:    fmt.Sprintf("group %s not found", groupID),
				HTTPStatus: http.StatusConflict,
			}
		}
		return nil, err
	}
	ids := make([]string, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (c *Client) FindTag(ctx context.Context, teamID, displayName string) (*tagsync.Tag, error) {
	path := fmt.Sprintf("/v1/teams/%s/tags?displayName=%s",
		url.PathEscape(teamID), url.QueryEscape(displayName))
	resources, err := listAll[tagResource](ctx, c, path)
	if err != nil {
		if IsCode(err, CodeNotFound) {
			return nil, teamNotFound(teamID)
		}
		return nil, err
	}
	// The query is a server-side filter; match exactly regardless.
	for _, r := range resources {
		if r.DisplayName == displayName {
			return &tagsync.Tag{ID: r.ID, DisplayName: r.DisplayName}, nil
		}
	}
	return nil, nil
}

func (c *Client) GetTag(ctx context.Context, teamID, tagID string) (*tagsync.Tag, error) {
	path := fmt.Sprintf("/v1/teams/%s/tags/%s", url.PathEscape(teamID), url.PathEscape(tagID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		if IsCode(err, CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var r tagResource
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("directory: parse tag response: %w", err)
	}
	return &tagsync.Tag{ID: r.ID, DisplayName: r.DisplayName}, nil
}

func (c *Client) CreateTag(ctx context.Context, teamID, displayName, description, seedMemberID string) (string, error) {
	path := fmt.Sprintf("/v1/teams/%s/tags", url.PathEscape(teamID))
	req := createTagRequest{
		DisplayName: displayName,
		Description: description,
		Members:     []tagMemberRequest{{UserID: seedMemberID}},
	}
	body, err := c.doRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		if IsCode(err, CodeNotFound) {
			return "", teamNotFound(teamID)
		}
		return "", err
	}
	var created createTagResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("directory: parse create tag response: %w", err)
	}
	return created.ID, nil
}

func (c *Client) DeleteTag(ctx context.Context, teamID, tagID string) error {
	path := fmt.Sprintf("/v1/teams/%s/tags/%s", url.PathEscape(teamID), url.PathEscape(tagID))
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if IsCode(err, CodeNotFound) {
		return nil
	}
	return err
}

func (c *Client) ListTagMembers(ctx context.Context, teamID, tagID string) ([]tagsync.TagMember, error) {
	path := fmt.Sprintf("/v1/teams/%s/tags/%s/members", url.PathEscape(teamID), url.PathEscape(tagID))
	resources, err := listAll[tagMemberResource](ctx, c, path)
	if err != nil {
		if IsCode(err, CodeMemberUnresolvable) {
			return nil, fmt.Errorf("%w: %v", tagsync.ErrMemberUnresolvable, err)
		}
		return nil, err
	}
	members := make([]tagsync.TagMember, 0, len(resources))
	for _, r := range resources {
		members = append(members, tagsync.TagMember{EntryID: r.ID, UserID: r.UserID})
	}
	return members, nil
}

func (c *Client) AddTagMember(ctx context.Context, teamID, tagID, userID string) error {
	path := fmt.Sprintf("/v1/teams/%s/tags/%s/members", url.PathEscape(teamID), url.PathEscape(tagID))
	_, err := c.doRequest(ctx, http.MethodPost, path, tagMemberRequest{UserID: userID})
	// Already a member: fine, the goal state holds.
	if IsCode(err, CodeConflict) {
		return nil
	}
	return err
}

func (c *Client) RemoveTagMember(ctx context.Context, teamID, tagID, entryID string) error {
	path := fmt.Sprintf("/v1/teams/%s/tags/%s/members/%s",
		url.PathEscape(teamID), url.PathEscape(tagID), url.PathEscape(entryID))
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if IsCode(err, CodeNotFound) {
		return nil
	}
	return err
}

func (c *Client) GetUser(ctx context.Context, userID string) (offboard.User, error) {
	path := fmt.Sprintf("/v1/users/%s", url.PathEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		if IsCode(err, CodeNotFound) {
			return offboard.User{}, userNotFound(userID)
		}
		return offboard.User{}, err
	}
	var r userResource
	if err := json.Unmarshal(body, &r); err != nil {
		return offboard.User{}, fmt.Errorf("directory: parse user response: %w", err)
	}
	return r.toDomain(), nil
}

func (c *Client) DisableUser(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/v1/users/%s", url.PathEscape(userID))
	disabled := false
	_, err := c.doRequest(ctx, http.MethodPatch, path, patchUserRequest{AccountEnabled: &disabled})
	if IsCode(err, CodeNotFound) {
		return userNotFound(userID)
	}
	return err
}

func (c *Client) RevokeSessions(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/v1/users/%s/revoke-sessions", url.PathEscape(userID))
	_, err := c.doRequest(ctx, http.MethodPost, path, nil)
	return err
}

func (c *Client) ListAuthMethods(ctx context.Context, userID string) ([]offboard.AuthMethod, error) {
	path := fmt.Sprintf("/v1/users/%s/auth-methods", url.PathEscape(userID))
	resources, err := listAll[authMethodResource](ctx, c, path)
	if err != nil {
		return nil, err
	}
	methods := make([]offboard.AuthMethod, 0, len(resources))
	for _, r := range resources {
		methods = append(methods, r.toDomain())
	}
	return methods, nil
}

func (c *Client) DeleteAuthMethod(ctx context.Context, userID, methodID string) error {
	path := fmt.Sprintf("/v1/users/%s/auth-methods/%s", url.PathEscape(userID), url.PathEscape(methodID))
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if IsCode(err, CodeNotFound) {
		return nil
	}
	return err
}

func (c *Client) ListUserGroups(ctx context.Context, userID string) ([]offboard.GroupMembership, error) {
	path := fmt.Sprintf("/v1/users/%s/groups", url.PathEscape(userID))
	resources, err := listAll[groupMembershipResource](ctx, c, path)
	if err != nil {
		return nil, err
	}
	groups := make([]offboard.GroupMembership, 0, len(resources))
	for _, r := range resources {
		groups = append(groups, r.toDomain())
	}
	return groups, nil
}

func (c *Client) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	path := fmt.Sprintf("/v1/groups/%s/members/%s", url.PathEscape(groupID), url.PathEscape(userID))
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if IsCode(err, CodeNotFound) {
		return nil
	}
	return err
}

func (c *Client) ListUserDevices(ctx context.Context, userID string) ([]offboard.Device, error) {
	path := fmt.Sprintf("/v1/users/%s/devices", url.PathEscape(userID))
	resources, err := listAll[deviceResource](ctx, c, path)
	if err != nil {
		return nil, err
	}
	devices := make([]offboard.Device, 0, len(resources))
	for _, r := range resources {
		devices = append(devices, offboard.Device{ID: r.ID, DisplayName: r.DisplayName})
	}
	return devices, nil
}

func (c *Client) WipeDevice(ctx context.Context, deviceID string) error {
	path := fmt.Sprintf("/v1/devices/%s/wipe", url.PathEscape(deviceID))
	_, err := c.doRequest(ctx, http.MethodPost, path, nil)
	return err
}

// listAll follows nextLink pagination until the listing is exhausted.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	next := path
	for next != "" {
		body, err := c.doRequest(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		var p page[T]
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("directory: parse list response: %w", err)
		}
		out = append(out, p.Value...)
		next = p.NextLink
	}
	return out, nil
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("directory: encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("directory: create request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Authorization", "Bearer "+c.token)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("directory: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("directory: read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	var envelope errorEnvelope
	if jsonErr := json.Unmarshal(responseBody, &envelope); jsonErr != nil || envelope.Error.Code == "" {
		return nil, &APIError{
			Code:       "Unknown",
			Message:    strings.TrimSpace(string(responseBody)),
			StatusCode: response.StatusCode,
		}
	}
	apiErr := envelope.Error
	apiErr.StatusCode = response.StatusCode
	return nil, &apiErr
}

func teamNotFound(teamID string) error {
	return &domain.DomainError{
		Code:       domain.ErrorCodeTeamNotFound,
		Message:    fmt.Sprintf("team %s not found", teamID),
		HTTPStatus: http.StatusConflict,
	}
}

func userNotFound(userID string) error {
	return &domain.DomainError{
		Code:       domain.ErrorCodeUserNotFound,
		Message:    fmt.Sprintf("user %s not found", userID),
		HTTPStatus: http.StatusNotFound,
	}
}
