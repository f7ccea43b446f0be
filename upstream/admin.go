package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ShafHaider007/expo-portal/models"
)

// DashboardStats fetches the aggregate dashboard block
func (c *Client) DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error) {
	env, err := c.getJSON(ctx, token, "/dashboard-stats", nil, "DashboardStats")
	if err != nil {
		return nil, err
	}

	var result models.DashboardStats
	if err := decodeData(env, &result, "DashboardStats"); err != nil {
		return nil, err
	}
	return &result, nil
}

// PaymentList fetches one page of the raw payment list
func (c *Client) PaymentList(ctx context.Context, token string, page int) (*models.PaymentPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	env, err := c.getJSON(ctx, token, "/payment-list", query, "PaymentList")
	if err != nil {
		return nil, err
	}

	var result models.PaymentPage
	if err := decodeData(env, &result, "PaymentList"); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisteredUsers fetches the registered-user listing
func (c *Client) RegisteredUsers(ctx context.Context, token string) ([]models.RegisteredUser, error) {
	env, err := c.getJSON(ctx, token, "/registered-users", nil, "RegisteredUsers")
	if err != nil {
		return nil, err
	}

	var result []models.RegisteredUser
	if err := decodeData(env, &result, "RegisteredUsers"); err != nil {
		return nil, err
	}
	return result, nil
}
