package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketchat/pkg/errors"
)

// UserBasicInfo is the profile slice used to enrich room summaries and
// participant lists.
type UserBasicInfo struct {
	UserID          string `json:"user_id"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profile_image_url"`
}

type UserClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	return &UserClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *UserClient) GetUserBasicInfo(ctx context.Context, userID string) (*UserBasicInfo, error) {
	url := fmt.Sprintf("%s/v1/users/%s/basic", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Internal("Failed to build user lookup request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Internal("User lookup failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFound("User", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Internal(fmt.Sprintf("User lookup returned status %d", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Internal("Failed to decode user lookup response", err)
	}
	if !env.Success || env.Data == nil {
		return nil, errors.NotFound("User", nil)
	}

	var info UserBasicInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, errors.Internal("Failed to parse user info", err)
	}

	return &info, nil
}
