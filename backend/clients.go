package backend

import (
	"context"
	"fmt"
)

// Community is one delivery zone.
type Community struct {
	ID   int64  `json:"idComunidad"`
	Name string `json:"nombreComunidad"`
}

// ClientRecord is one customer within a community.
type ClientRecord struct {
	ID          int64  `json:"idCliente"`
	Name        string `json:"nombreCliente"`
	CommunityID int64  `json:"idComunidad"`
	Address     string `json:"direccion"`
	Phone       string `json:"telefono"`
}

// Communities lists all delivery zones.
func (c *Client) Communities(ctx context.Context) ([]Community, error) {
	var out []Community
	if err := c.get(ctx, "/api/Clientes/comunidades", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClientsByCommunity lists the customers of one delivery zone.
func (c *Client) ClientsByCommunity(ctx context.Context, communityID int64) ([]ClientRecord, error) {
	var out []ClientRecord
	if err := c.get(ctx, fmt.Sprintf("/api/Clientes/comunidad/%d", communityID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
