package mockjudge

import (
	"context"
	"fmt"

	"njoj_client/internal/domain/model"
)

// Seed creates the admin account and a few public problems so a fresh
// backend is usable straight away.
func (s *Service) Seed(ctx context.Context, adminUsername, adminPassword string) error {
	admin, err := s.SeedUser(ctx, adminUsername, adminPassword, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	samples := []model.ProblemCreate{
		{
			CustomID:    ptr("P1001"),
			Title:       "A+B Problem",
			Description: "Read two integers and print their sum.",
			Difficulty:  model.DifficultyEasy,
			Tags:        []string{"math", "implementation"},
			TimeLimit:   1000,
			MemoryLimit: 256,
			IsPublic:    true,
			TestCases: []model.TestCase{
				{Input: "1 2\n", Output: "3\n", IsSample: true},
				{Input: "-5 5\n", Output: "0\n"},
			},
			SampleTestCases: []model.TestCase{{Input: "1 2\n", Output: "3\n", IsSample: true}},
		},
		{
			CustomID:    ptr("P1002"),
			Title:       "Longest Increasing Subsequence",
			Description: "Given n integers, print the length of the longest strictly increasing subsequence.",
			Difficulty:  model.DifficultyMedium,
			Tags:        []string{"dp"},
			TimeLimit:   2000,
			MemoryLimit: 256,
			IsPublic:    true,
			TestCases: []model.TestCase{
				{Input: "6\n1 3 2 4 6 5\n", Output: "4\n", IsSample: true},
			},
			SampleTestCases: []model.TestCase{{Input: "6\n1 3 2 4 6 5\n", Output: "4\n", IsSample: true}},
		},
		{
			CustomID:    ptr("P1003"),
			Title:       "Shortest Paths",
			Description: "Single-source shortest paths on a weighted directed graph.",
			Difficulty:  model.DifficultyHard,
			Tags:        []string{"graph", "dp"},
			TimeLimit:   2000,
			MemoryLimit: 512,
			IsPublic:    true,
			TestCases: []model.TestCase{
				{Input: "3 3 1\n1 2 4\n2 3 1\n1 3 7\n", Output: "0 4 5\n", IsSample: true},
			},
		},
	}
	caller := Caller{ID: admin.ID, Role: admin.Role}
	for _, p := range samples {
		if _, err := s.CreateProblem(ctx, caller, p); err != nil {
			return fmt.Errorf("failed to seed problem %s: %w", p.Title, err)
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
