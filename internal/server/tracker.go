package server

import (
	"context"
	"encoding/json"
	"net/http"

	"habbo-tracker/internal/domain"
	"habbo-tracker/internal/hotel"
	"habbo-tracker/internal/monitoring"
	"habbo-tracker/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const HabboTrackerPath = "/habbo.v1.HabboTracker/"

const (
	GetProfileProcedure = HabboTrackerPath + "GetProfile"
	GetGroupsProcedure  = HabboTrackerPath + "GetGroups"
	GetRankingProcedure = HabboTrackerPath + "GetRanking"
	ListHotelsProcedure = HabboTrackerPath + "ListHotels"
)

type LookupRequest struct {
	Deployment string `json:"deployment"`
	PlayerID   string `json:"playerId"`
}

type GroupsResponse struct {
	Groups json.RawMessage `json:"groups"`
}

type RankingRequest struct {
	Deployment string `json:"deployment"`
	Limit      int    `json:"limit"`
}

type RankingResponse struct {
	Items []domain.LeaderboardEntry `json:"items"`
}

type HotelsRequest struct{}

type HotelsResponse struct {
	Hotels []hotel.Hotel `json:"hotels"`
}

type TrackerServer struct {
	profiles *service.ProfileService
	rankings *service.RankingService
	logger   zerolog.Logger
}

func NewTrackerServer(profiles *service.ProfileService, rankings *service.RankingService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{profiles: profiles, rankings: rankings, logger: logger}
}

func (s *TrackerServer) GetProfile(ctx context.Context, req *connect.Request[LookupRequest]) (*connect.Response[domain.ProfileView], error) {
	view, err := s.profiles.GetProfile(ctx, req.Msg.Deployment, req.Msg.PlayerID)
	if err != nil {
		return nil, s.rpcError(ctx, GetProfileProcedure, err)
	}
	return connect.NewResponse(view), nil
}

func (s *TrackerServer) GetGroups(ctx context.Context, req *connect.Request[LookupRequest]) (*connect.Response[GroupsResponse], error) {
	groups, err := s.profiles.GetGroups(ctx, req.Msg.Deployment, req.Msg.PlayerID)
	if err != nil {
		return nil, s.rpcError(ctx, GetGroupsProcedure, err)
	}
	return connect.NewResponse(&GroupsResponse{Groups: groups}), nil
}

func (s *TrackerServer) GetRanking(ctx context.Context, req *connect.Request[RankingRequest]) (*connect.Response[RankingResponse], error) {
	entries, err := s.rankings.RankByBadgeCount(ctx, req.Msg.Deployment, req.Msg.Limit)
	if err != nil {
		return nil, s.rpcError(ctx, GetRankingProcedure, err)
	}
	return connect.NewResponse(&RankingResponse{Items: entries}), nil
}

func (s *TrackerServer) ListHotels(ctx context.Context, req *connect.Request[HotelsRequest]) (*connect.Response[HotelsResponse], error) {
	return connect.NewResponse(&HotelsResponse{Hotels: hotel.All()}), nil
}

// RPCHandlers returns the connect handlers keyed by procedure path.
func (s *TrackerServer) RPCHandlers() map[string]http.Handler {
	opts := []connect.HandlerOption{connect.WithCodec(jsonCodec{})}
	return map[string]http.Handler{
		GetProfileProcedure: connect.NewUnaryHandler(GetProfileProcedure, s.GetProfile, opts...),
		GetGroupsProcedure:  connect.NewUnaryHandler(GetGroupsProcedure, s.GetGroups, opts...),
		GetRankingProcedure: connect.NewUnaryHandler(GetRankingProcedure, s.GetRanking, opts...),
		ListHotelsProcedure: connect.NewUnaryHandler(ListHotelsProcedure, s.ListHotels, opts...),
	}
}

func (s *TrackerServer) rpcError(ctx context.Context, procedure string, err error) error {
	cerr := connectError(err)
	if cerr.Code() == connect.CodeInternal {
		zerolog.Ctx(ctx).Error().Err(err).Str("procedure", procedure).Msg("rpc failed")
		monitoring.CaptureError(err, map[string]string{"procedure": procedure})
	}
	return cerr
}
