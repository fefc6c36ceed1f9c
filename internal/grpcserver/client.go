package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"slimelist/pkg/models"
)

// Client calls ListService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, grpc.CallContentSubtype(codecName))
}

func (c *Client) ListEntries(ctx context.Context, in *ListEntriesRequest) (*ListEntriesResponse, error) {
	out := new(ListEntriesResponse)
	if err := c.invoke(ctx, "ListEntries", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetEntry(ctx context.Context, in *EntryRequest) (*EntryResponse, error) {
	out := new(EntryResponse)
	if err := c.invoke(ctx, "GetEntry", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddEntry(ctx context.Context, in *AddEntryRequest) (*EntryResponse, error) {
	out := new(EntryResponse)
	if err := c.invoke(ctx, "AddEntry", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateEntry(ctx context.Context, in *UpdateEntryRequest) (*EntryResponse, error) {
	out := new(EntryResponse)
	if err := c.invoke(ctx, "UpdateEntry", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RemoveEntry(ctx context.Context, in *EntryRequest) (*RemoveEntryResponse, error) {
	out := new(RemoveEntryResponse)
	if err := c.invoke(ctx, "RemoveEntry", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStats(ctx context.Context) (*models.ListStats, error) {
	out := new(models.ListStats)
	if err := c.invoke(ctx, "GetStats", &StatsRequest{}, out); err != nil {
		return nil, err
	}
	return out, nil
}
