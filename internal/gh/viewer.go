package gh

import "context"

type Viewer struct {
	ID    string `graphql:"id"`
	Name  string `graphql:"name"`
	Login string `graphql:"login"`
	Email string `graphql:"email"`
}

func (c *Client) Viewer(ctx context.Context) (*Viewer, error) {
	var query struct {
		Viewer Viewer `graphql:"viewer"`
	}
	err := c.query(ctx, &query, nil)
	if err != nil {
		return nil, err
	}
	return &query.Viewer, nil
}
