package upstream

import (
	"context"
	"net/url"

	"github.com/ShafHaider007/expo-portal/models"
)

// FilteredPlots fetches the plot inventory for the given filter combination.
// Empty parameters are omitted from the query so the backend applies no
// constraint at that level.
func (c *Client) FilteredPlots(ctx context.Context, token, phase, category, size string) (*models.PlotListResult, error) {
	query := url.Values{}
	if phase != "" {
		query.Set("phase", phase)
	}
	if category != "" {
		query.Set("category", category)
	}
	if size != "" {
		query.Set("size", size)
	}

	env, err := c.getJSON(ctx, token, "/filtered-plots", query, "FilteredPlots")
	if err != nil {
		return nil, err
	}

	var result models.PlotListResult
	if err := decodeData(env, &result, "FilteredPlots"); err != nil {
		return nil, err
	}
	return &result, nil
}

// optionList matches the cascade option payloads, which arrive either as a
// bare string array or wrapped in a values field depending on the endpoint
type optionList struct {
	Values []string `json:"values"`
}

// PhaseCategories fetches the categories available within a phase
func (c *Client) PhaseCategories(ctx context.Context, token, phase string) ([]string, error) {
	query := url.Values{}
	query.Set("phase", phase)

	env, err := c.getJSON(ctx, token, "/plot-categories", query, "PhaseCategories")
	if err != nil {
		return nil, err
	}
	return decodeOptions(env, "PhaseCategories")
}

// PhaseSizes fetches the sizes available for a phase and category
func (c *Client) PhaseSizes(ctx context.Context, token, phase, category string) ([]string, error) {
	query := url.Values{}
	query.Set("phase", phase)
	query.Set("category", category)

	env, err := c.getJSON(ctx, token, "/plot-sizes", query, "PhaseSizes")
	if err != nil {
		return nil, err
	}
	return decodeOptions(env, "PhaseSizes")
}

func decodeOptions(env *envelope, operation string) ([]string, error) {
	var bare []string
	if err := decodeData(env, &bare, operation); err == nil {
		return bare, nil
	}

	var wrapped optionList
	if err := decodeData(env, &wrapped, operation); err != nil {
		return nil, err
	}
	return wrapped.Values, nil
}
