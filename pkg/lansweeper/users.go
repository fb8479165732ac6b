package lansweeper

import (
	"context"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
)

type currentUserData struct {
	Me *User `json:"me"`
}

// CurrentUser returns the user the access token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	c.logger.Debug("getting current user")

	env, err := Execute[currentUserData](ctx, c, Request{Query: queryCurrentUser})
	if err != nil {
		return nil, err
	}
	if env.HasErrors() {
		return nil, apierrors.GraphQL("failed to retrieve current user information", env.Errors)
	}
	if env.Data == nil || env.Data.Me == nil {
		return nil, apierrors.New("current user information not available", nil)
	}
	return env.Data.Me, nil
}
