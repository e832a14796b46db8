package rag

import (
	"context"

	"lectern/pkg/api"
)

// Service 將 System 包裝為通道層使用的 api.QueryService
type Service struct {
	system *System
}

// NewService 建立查詢服務
func NewService(system *System) *Service {
	return &Service{system: system}
}

// Query 實作 api.QueryService
func (s *Service) Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error) {
	answer, err := s.system.Query(ctx, req.Query, req.SessionID)
	if err != nil {
		return nil, err
	}

	sources := make([]api.SourceRef, 0, len(answer.Sources))
	for _, src := range answer.Sources {
		sources = append(sources, api.SourceRef{
			Text: src.Text(),
			Link: src.Link,
		})
	}

	return &api.QueryResponse{
		Answer:    answer.Text,
		Sources:   sources,
		SessionID: answer.SessionID,
	}, nil
}

// CourseStats 實作 api.QueryService
func (s *Service) CourseStats(ctx context.Context) (*api.CourseStats, error) {
	analytics, err := s.system.CourseAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	return &api.CourseStats{
		TotalCourses: analytics.TotalCourses,
		CourseTitles: analytics.CourseTitles,
	}, nil
}

// NewSession 實作 api.QueryService
func (s *Service) NewSession(ctx context.Context) (string, error) {
	return s.system.Sessions().Create(), nil
}
