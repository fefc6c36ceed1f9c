package grpcserver

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"slimelist/internal/catalog"
	"slimelist/internal/library"
	"slimelist/internal/tracker"
	"slimelist/pkg/models"
)

// Server implements ListServiceServer on top of the tracker service. Every
// method acts for the user authenticated by AuthInterceptor.
type Server struct {
	Tracker *tracker.Service
	Catalog tracker.CatalogLookup
}

var _ ListServiceServer = (*Server)(nil)

func NewServer(svc *tracker.Service, lookup tracker.CatalogLookup) *Server {
	return &Server{Tracker: svc, Catalog: lookup}
}

func (s *Server) ListEntries(ctx context.Context, req *ListEntriesRequest) (*ListEntriesResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}

	var filter models.Status
	if req.Status != "" {
		if filter = models.ParseStatus(req.Status); filter == "" {
			return nil, status.Error(codes.InvalidArgument, "invalid status filter")
		}
	}

	items, err := s.Tracker.List(ctx, userID, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListEntriesResponse{Total: len(items), Entries: items}, nil
}

func (s *Server) GetEntry(ctx context.Context, req *EntryRequest) (*EntryResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.AnimeID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "anime_id required")
	}

	entry, err := s.Tracker.Get(ctx, userID, req.AnimeID)
	if err != nil {
		return nil, toStatus(err)
	}
	if entry == nil {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return &EntryResponse{Entry: entry}, nil
}

func (s *Server) AddEntry(ctx context.Context, req *AddEntryRequest) (*EntryResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.AnimeID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "anime_id required")
	}
	st := models.ParseStatus(req.Status)
	if st == "" {
		return nil, status.Error(codes.InvalidArgument, "invalid status")
	}

	anime, err := s.Catalog.GetByID(ctx, req.AnimeID)
	if err != nil {
		return nil, toStatus(err)
	}
	entry, err := s.Tracker.Add(ctx, userID, *anime, st, req.EpisodesWatched, req.Score)
	if err != nil {
		return nil, toStatus(err)
	}
	return &EntryResponse{Entry: entry}, nil
}

func (s *Server) UpdateEntry(ctx context.Context, req *UpdateEntryRequest) (*EntryResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.AnimeID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "anime_id required")
	}
	var st models.Status
	if req.Status != "" {
		if st = models.ParseStatus(req.Status); st == "" {
			return nil, status.Error(codes.InvalidArgument, "invalid status")
		}
	}

	entry, err := s.Tracker.Apply(ctx, userID, req.AnimeID, tracker.Update(st, req.EpisodesWatched, req.Delta, req.Score))
	if err != nil {
		return nil, toStatus(err)
	}
	return &EntryResponse{Entry: entry}, nil
}

func (s *Server) RemoveEntry(ctx context.Context, req *EntryRequest) (*RemoveEntryResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.AnimeID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "anime_id required")
	}

	if err := s.Tracker.Remove(ctx, userID, req.AnimeID); err != nil {
		return nil, toStatus(err)
	}
	return &RemoveEntryResponse{Removed: true}, nil
}

func (s *Server) GetStats(ctx context.Context, _ *StatsRequest) (*models.ListStats, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.Tracker.Stats(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return stats, nil
}

func toStatus(err error) error {
	var (
		violation *models.InvariantViolation
		remote    *catalog.RemoteError
		transport *catalog.TransportError
		storeErr  *library.StoreError
	)
	switch {
	case errors.Is(err, tracker.ErrNotInList):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, tracker.ErrInvalidStatus), errors.Is(err, tracker.ErrInvalidScore),
		errors.Is(err, tracker.ErrInvalidAnime), errors.Is(err, tracker.ErrInvalidAction),
		errors.Is(err, catalog.ErrInvalidID), errors.As(err, &violation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &remote):
		if remote.StatusCode == http.StatusNotFound {
			return status.Error(codes.NotFound, "anime not found")
		}
		return status.Error(codes.Unavailable, "catalog unavailable")
	case errors.Is(err, catalog.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "catalog rate limited")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.As(err, &transport):
		return status.Error(codes.Unavailable, "catalog unavailable")
	case errors.As(err, &storeErr):
		return status.Error(codes.Internal, "list store failed")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
